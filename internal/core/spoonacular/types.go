package spoonacular

import (
	"encoding/json"
	"strings"
)

// SearchRequest 食材搜尋參數
type SearchRequest struct {
	Ingredients  []string
	Number       int
	Cuisine      string
	MealType     string
	Diet         string
	Intolerances []string
	MaxReadyTime int
	MinCalories  float64
	MaxCalories  float64
	MinProtein   float64
	MaxProtein   float64
}

// hasSemanticFilters 是否需要改用 complexSearch 由上游先行過濾
func (r SearchRequest) hasSemanticFilters() bool {
	return r.Diet != "" || len(r.Intolerances) > 0 || r.Cuisine != "" || r.MealType != ""
}

// Recipe 上游食譜格式，同時涵蓋 findByIngredients、complexSearch 與 informationBulk
type Recipe struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Image          string   `json:"image,omitempty"`
	Summary        string   `json:"summary,omitempty"`
	ReadyInMinutes int      `json:"readyInMinutes,omitempty"`
	Servings       int      `json:"servings,omitempty"`
	Instructions   string   `json:"instructions,omitempty"`
	SourceURL      string   `json:"sourceUrl,omitempty"`
	Cuisines       []string `json:"cuisines,omitempty"`
	DishTypes      []string `json:"dishTypes,omitempty"`
	Diets          []string `json:"diets,omitempty"`

	Vegetarian bool `json:"vegetarian,omitempty"`
	Vegan      bool `json:"vegan,omitempty"`
	GlutenFree bool `json:"glutenFree,omitempty"`
	DairyFree  bool `json:"dairyFree,omitempty"`

	ExtendedIngredients  json.RawMessage `json:"extendedIngredients,omitempty"`
	AnalyzedInstructions json.RawMessage `json:"analyzedInstructions,omitempty"`
	Nutrition            json.RawMessage `json:"nutrition,omitempty"`

	UsedIngredientCount   int          `json:"usedIngredientCount,omitempty"`
	MissedIngredientCount int          `json:"missedIngredientCount,omitempty"`
	UsedIngredients       []Ingredient `json:"usedIngredients,omitempty"`
	MissedIngredients     []Ingredient `json:"missedIngredients,omitempty"`
}

// Ingredient 上游材料格式
type Ingredient struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Original string  `json:"original"`
	Amount   float64 `json:"amount"`
	Unit     string  `json:"unit"`
}

type nutrient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

type nutritionPayload struct {
	Nutrients []nutrient `json:"nutrients"`
}

type complexSearchResponse struct {
	Results      []Recipe `json:"results"`
	TotalResults int      `json:"totalResults"`
}

// Substitutes 食材替代品
type Substitutes struct {
	Ingredient  string   `json:"ingredient"`
	Substitutes []string `json:"substitutes"`
	Message     string   `json:"message"`
	Status      string   `json:"status"`
}

// Best 第一個替代建議，沒有時回傳空字串
func (s *Substitutes) Best() string {
	if s == nil {
		return ""
	}
	for _, sub := range s.Substitutes {
		if sub = strings.TrimSpace(sub); sub != "" {
			return sub
		}
	}
	return ""
}

// SimilarRecipe 相似食譜
type SimilarRecipe struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	ReadyInMinutes int    `json:"readyInMinutes"`
	Servings       int    `json:"servings,omitempty"`
	SourceURL      string `json:"sourceUrl,omitempty"`
}

// Stats API 使用量
type Stats struct {
	Calls      int64   `json:"calls"`
	QuotaUsed  float64 `json:"quota_used"`
	QuotaLeft  float64 `json:"quota_left"`
	QuotaKnown bool    `json:"quota_known"`
}
