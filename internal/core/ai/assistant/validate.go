package assistant

import (
	"context"
	"fmt"
	"strings"

	"pantry-chef/internal/core/recipe"
	"pantry-chef/internal/pkg/common"

	"go.uber.org/zap"
)

// ValidationRequest 單一食譜的分類與安全複核
type ValidationRequest struct {
	Title        string
	Ingredients  []string
	Instructions string
	Diet         string
	Intolerances []string
	Cuisine      string
	MealType     string
}

// Validation LLM 複核結果
type Validation struct {
	ActualCuisines  []string `json:"actual_cuisines"`
	ActualDiets     []string `json:"actual_diets"`
	ActualMealTypes []string `json:"actual_meal_types"`
	IsVegetarian    bool     `json:"is_vegetarian"`
	IsVegan         bool     `json:"is_vegan"`
	IsGlutenFree    bool     `json:"is_gluten_free"`
	IsDairyFree     bool     `json:"is_dairy_free"`

	MatchesUserDiet       bool     `json:"matches_user_diet"`
	MatchesUserCuisine    bool     `json:"matches_user_cuisine"`
	MatchesUserMealType   bool     `json:"matches_user_meal_type"`
	IntoleranceSafe       bool     `json:"intolerance_safe"`
	IntoleranceViolations []string `json:"intolerance_violations"`

	SafeForUser     bool   `json:"safe_for_user"`
	RejectionReason string `json:"rejection_reason"`
	Confidence      string `json:"confidence"`

	Validated bool `json:"validated"`
}

// DefaultValidation LLM 無法判斷時的預設結果，傾向放行
func DefaultValidation() Validation {
	return Validation{
		ActualCuisines:        []string{},
		ActualDiets:           []string{},
		ActualMealTypes:       []string{},
		MatchesUserDiet:       true,
		MatchesUserCuisine:    true,
		MatchesUserMealType:   true,
		IntoleranceSafe:       true,
		IntoleranceViolations: []string{},
		SafeForUser:           true,
		Confidence:            "low",
	}
}

// NewValidationRequest 由候選食譜與使用者設定組出複核請求
func NewValidationRequest(c *recipe.Candidate, s recipe.Settings, cuisine, mealType string) ValidationRequest {
	ingredients := make([]string, 0, len(c.Ingredients))
	for _, ing := range c.Ingredients {
		text := strings.TrimSpace(ing.Original)
		if text == "" {
			text = strings.TrimSpace(ing.Name)
		}
		if text != "" {
			ingredients = append(ingredients, text)
		}
	}
	return ValidationRequest{
		Title:        c.Title,
		Ingredients:  ingredients,
		Instructions: c.Instructions,
		Diet:         strings.Join(s.DietaryRequirements, ", "),
		Intolerances: s.Intolerances,
		Cuisine:      cuisine,
		MealType:     mealType,
	}
}

const validatePrompt = `You are a culinary expert analyzing a recipe for classification AND dietary safety.

Recipe Title: %s

Ingredients:
%s

Instructions (preview): %s

User's Dietary Requirements:
%s

Your task is to:
1. CLASSIFY the recipe (what it actually is)
2. VALIDATE if it's safe for the user's requirements

DIET CLASSIFICATION:
- Vegetarian = NO meat, fish, or poultry (eggs/dairy OK)
- Vegan = NO animal products whatsoever (no meat, fish, eggs, dairy, honey)
- Pescatarian = Fish/seafood OK, but no other meat

INTOLERANCE VALIDATION:
- "Dairy-free" means NO milk, cheese, butter, cream, yogurt, whey, casein. Almond, coconut, soy and oat milk ARE dairy-free.
- "Gluten-free" means NO wheat, barley, rye, regular flour, pasta, bread. Rice flour, almond flour and corn tortillas ARE gluten-free.
- Check ACTUAL ingredients, not just the recipe name.

CUISINE MATCHING:
- Use the dish itself and ingredient clues (soy sauce: Asian, cumin: Indian/Mexican).

Return ONLY valid JSON:
{
  "actual_cuisines": ["cuisine1"],
  "actual_diets": ["diet1"],
  "actual_meal_types": ["type1"],
  "is_vegetarian": true/false,
  "is_vegan": true/false,
  "is_gluten_free": true/false,
  "is_dairy_free": true/false,
  "matches_user_diet": true/false,
  "matches_user_cuisine": true/false,
  "matches_user_meal_type": true/false,
  "intolerance_safe": true/false,
  "intolerance_violations": ["specific violation"],
  "safe_for_user": true/false,
  "rejection_reason": "Brief explanation if safe_for_user is false",
  "confidence": "high" | "medium" | "low"
}

safe_for_user is TRUE only if ALL requirements are met. It is FALSE on a diet mismatch, a cuisine mismatch (if the user specified one), or any intolerance violation.`

// ValidateRecipe 以 LLM 複核食譜分類與安全性，任何失敗都回傳預設結果
func (a *Assistant) ValidateRecipe(ctx context.Context, req ValidationRequest) Validation {
	if !a.Available() {
		return DefaultValidation()
	}

	v := DefaultValidation()
	if err := a.llm.GenerateJSON(ctx, buildValidatePrompt(req), "", &v); err != nil {
		common.LogWarn("食譜複核失敗，使用預設結果",
			zap.String("title", req.Title),
			zap.Error(err),
		)
		return DefaultValidation()
	}
	if v.Confidence == "" {
		v.Confidence = "low"
	}
	v.Validated = true
	return v
}

func buildValidatePrompt(req ValidationRequest) string {
	ingredients := req.Ingredients
	if len(ingredients) > 25 {
		ingredients = ingredients[:25]
	}
	lines := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		lines = append(lines, "- "+ing)
	}

	instructions := strings.TrimSpace(req.Instructions)
	if instructions == "" {
		instructions = "No instructions provided"
	} else if r := []rune(instructions); len(r) > 500 {
		instructions = string(r[:500])
	}

	var reqs []string
	if req.Diet != "" {
		reqs = append(reqs, "Diet: "+req.Diet)
	}
	if len(req.Intolerances) > 0 {
		reqs = append(reqs, "Intolerances: "+strings.Join(req.Intolerances, ", "))
	}
	if req.Cuisine != "" {
		reqs = append(reqs, "Preferred Cuisine: "+req.Cuisine)
	}
	if req.MealType != "" {
		reqs = append(reqs, "Preferred Meal Type: "+req.MealType)
	}
	requirements := "None specified"
	if len(reqs) > 0 {
		requirements = strings.Join(reqs, "\n")
	}

	return fmt.Sprintf(validatePrompt, req.Title, strings.Join(lines, "\n"), instructions, requirements)
}
