package substitution

import (
	"context"
	"fmt"
	"strings"

	"pantry-chef/internal/core/ai/assistant"
	"pantry-chef/internal/core/spoonacular"
	"pantry-chef/internal/pkg/common"

	"go.uber.org/zap"
)

// Source 上游替代品與相似食譜查詢，*spoonacular.Client 即為實作
type Source interface {
	Substitutes(ctx context.Context, ingredient string) (*spoonacular.Substitutes, error)
	Similar(ctx context.Context, id int64, number int) ([]spoonacular.SimilarRecipe, error)
}

// Advisor LLM 替代建議，*assistant.Assistant 即為實作
type Advisor interface {
	Available() bool
	Substitute(ctx context.Context, req assistant.SubstitutionRequest) assistant.Advice
}

// Request 替代食材詢問
type Request struct {
	MissingItem string
	RecipeTitle string
	RecipeID    int64 // 0 表示不查相似食譜
	Pantry      []string
}

// Help 彙整後的替代建議
type Help struct {
	MissingItem         string                      `json:"missing_item"`
	APISubstitutes      *spoonacular.Substitutes    `json:"api_substitutes"`
	SimilarRecipes      []spoonacular.SimilarRecipe `json:"similar_recipes"`
	SmartRecommendation *assistant.Advice           `json:"smart_recommendation"`
	BestOption          string                      `json:"best_option"`
}

// HasAnswer 是否有任何來源提供建議
func (h *Help) HasAnswer() bool {
	return h.SmartRecommendation != nil || h.APISubstitutes.Best() != "" || len(h.SimilarRecipes) > 0
}

const similarCount = 5

// Helper 結合上游替代品、相似食譜與 LLM 建議
type Helper struct {
	source  Source
	advisor Advisor
}

// NewHelper 創建替代建議助手，advisor 可為 nil
func NewHelper(source Source, advisor Advisor) *Helper {
	return &Helper{source: source, advisor: advisor}
}

// Help 依序查詢上游替代品、相似食譜與 LLM 建議，查詢失敗只記錄日誌
func (h *Helper) Help(ctx context.Context, req Request) (*Help, error) {
	item := strings.TrimSpace(req.MissingItem)
	if item == "" {
		return nil, common.NewValidationError("missing item is required")
	}

	out := &Help{MissingItem: item, SimilarRecipes: []spoonacular.SimilarRecipe{}}

	subs, err := h.source.Substitutes(ctx, item)
	if err != nil {
		common.LogWarn("查詢替代品失敗", zap.String("ingredient", item), zap.Error(err))
	} else {
		out.APISubstitutes = subs
	}

	if req.RecipeID > 0 {
		similar, err := h.source.Similar(ctx, req.RecipeID, similarCount)
		if err != nil {
			common.LogWarn("查詢相似食譜失敗", zap.Int64("recipe_id", req.RecipeID), zap.Error(err))
		} else if similar != nil {
			out.SimilarRecipes = similar
		}
	}

	if h.advisor != nil && h.advisor.Available() && len(req.Pantry) > 0 {
		advice := h.advisor.Substitute(ctx, assistant.SubstitutionRequest{
			MissingItem:   item,
			RecipeTitle:   req.RecipeTitle,
			Pantry:        req.Pantry,
			APISubstitute: out.APISubstitutes.Best(),
		})
		out.SmartRecommendation = &advice
	}

	out.BestOption = bestOption(out)
	return out, nil
}

// bestOption LLM 建議優先，其次上游替代品、相似食譜，最後建議省略
func bestOption(h *Help) string {
	if h.SmartRecommendation != nil && h.SmartRecommendation.Substitution != "" {
		return h.SmartRecommendation.Substitution
	}
	if sub := h.APISubstitutes.Best(); sub != "" {
		return sub
	}
	if len(h.SimilarRecipes) > 0 {
		return "Try similar recipe: " + h.SimilarRecipes[0].Title
	}
	if h.SmartRecommendation != nil {
		return fmt.Sprintf("Consider omitting %s or using pantry alternatives", h.MissingItem)
	}
	return fmt.Sprintf("Consider omitting %s", h.MissingItem)
}

// SimilarTitles 相似食譜標題，最多 n 個
func (h *Help) SimilarTitles(n int) []string {
	titles := []string{}
	for _, r := range h.SimilarRecipes {
		if len(titles) == n {
			break
		}
		titles = append(titles, r.Title)
	}
	return titles
}
