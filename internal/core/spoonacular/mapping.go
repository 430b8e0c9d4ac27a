package spoonacular

import (
	"encoding/json"
	"fmt"
	"strings"

	"pantry-chef/internal/core/recipe"
	"pantry-chef/internal/pkg/common"
)

// 候選來源
const (
	SourceAPI        = "spoonacular"
	SourceLLM        = "ai_generated"
	SourceStub       = "spoonacular_stub"
	defaultRecipeTag = "Unknown Recipe"
)

// ToCandidate 轉成推薦流程使用的候選食譜
func ToCandidate(r Recipe, source string) recipe.Candidate {
	c := recipe.Candidate{
		ID:                   r.ID,
		Title:                r.Title,
		Image:                r.Image,
		Summary:              r.Summary,
		Servings:             r.Servings,
		Instructions:         r.Instructions,
		ExtendedIngredients:  r.ExtendedIngredients,
		AnalyzedInstructions: r.AnalyzedInstructions,
		Nutrition:            r.Nutrition,
		Cuisines:             r.Cuisines,
		DishTypes:            r.DishTypes,
		Diets:                r.Diets,
		UsedCount:            r.UsedIngredientCount,
		MissedCount:          r.MissedIngredientCount,
		Source:               source,
	}
	if c.Title == "" {
		c.Title = defaultRecipeTag
	}
	if r.ReadyInMinutes > 0 {
		ready := r.ReadyInMinutes
		c.ReadyInMinutes = &ready
	}

	c.Ingredients = manifest(r)
	c.Nutrients = nutrients(r.Nutrition)
	c.Flags = flags(r)
	return c
}

// manifest 優先使用 extendedIngredients，否則合併 used/missed 清單
func manifest(r Recipe) []recipe.Ingredient {
	var wire []Ingredient
	if len(r.ExtendedIngredients) > 0 {
		if err := json.Unmarshal(r.ExtendedIngredients, &wire); err != nil {
			wire = nil
		}
	}
	if len(wire) == 0 {
		wire = append(append(wire, r.UsedIngredients...), r.MissedIngredients...)
	}

	out := make([]recipe.Ingredient, 0, len(wire))
	for _, w := range wire {
		out = append(out, recipe.Ingredient{
			ID:       w.ID,
			Name:     w.Name,
			Original: w.Original,
			Amount:   w.Amount,
			Unit:     w.Unit,
		})
	}
	return out
}

func nutrients(raw json.RawMessage) map[string]float64 {
	if len(raw) == 0 {
		return nil
	}
	var payload nutritionPayload
	if err := json.Unmarshal(raw, &payload); err != nil || len(payload.Nutrients) == 0 {
		return nil
	}
	out := make(map[string]float64, len(payload.Nutrients))
	for _, n := range payload.Nutrients {
		if n.Name != "" {
			out[n.Name] = n.Amount
		}
	}
	return out
}

// flags 布林欄位與 diets 清單擇一成立即可
func flags(r Recipe) recipe.DietFlags {
	diets := make(map[string]bool, len(r.Diets))
	for _, d := range r.Diets {
		diets[strings.ToLower(strings.TrimSpace(d))] = true
	}
	return recipe.DietFlags{
		Vegetarian: r.Vegetarian || diets["vegetarian"] || diets["lacto ovo vegetarian"] || diets["vegan"],
		Vegan:      r.Vegan || diets["vegan"],
		GlutenFree: r.GlutenFree || diets["gluten free"] || diets["gluten-free"],
		DairyFree:  r.DairyFree || diets["dairy free"] || diets["dairy-free"],
	}
}

// stub 補充資訊失敗時保留的最小候選
func stub(r Recipe) recipe.Candidate {
	return recipe.Candidate{
		ID:          r.ID,
		Title:       titleOr(r.Title),
		Image:       r.Image,
		UsedCount:   r.UsedIngredientCount,
		MissedCount: r.MissedIngredientCount,
		Ingredients: manifest(Recipe{UsedIngredients: r.UsedIngredients, MissedIngredients: r.MissedIngredients}),
		Source:      SourceStub,
	}
}

func titleOr(t string) string {
	if strings.TrimSpace(t) == "" {
		return defaultRecipeTag
	}
	return t
}

// DecodeRecipes 解析 JSON 陣列或單一物件格式的食譜，容忍 code fence 與前後雜訊
func DecodeRecipes(raw string) ([]Recipe, error) {
	text := common.StripCodeFences(raw)
	arrAt := strings.Index(text, "[")
	objAt := strings.Index(text, "{")

	if arrAt >= 0 && (objAt < 0 || arrAt < objAt) {
		if arr, ok := common.ExtractJSONArray(text); ok {
			var recipes []Recipe
			if err := json.Unmarshal([]byte(arr), &recipes); err != nil {
				return nil, fmt.Errorf("failed to decode recipe list: %w", err)
			}
			return recipes, nil
		}
	}
	if obj, ok := common.ExtractJSONObject(text); ok {
		var single Recipe
		if err := json.Unmarshal([]byte(obj), &single); err != nil {
			return nil, fmt.Errorf("failed to decode recipe: %w", err)
		}
		return []Recipe{single}, nil
	}
	return nil, fmt.Errorf("no recipe JSON found in response")
}
