package assistant

import (
	"context"
	"fmt"
	"strings"

	"pantry-chef/internal/core/recipe"
	"pantry-chef/internal/pkg/common"

	"go.uber.org/zap"
)

// RejectionMarker LLM 判定食譜不安全時回覆的標記
const RejectionMarker = "REJECTED: Safety Violation"

const (
	noMatchesPitch         = "No recipes match your criteria. Try relaxing some filters!"
	noRecommendationsPitch = "No recommendations found."
	fallbackPitch          = "Here's %s for you!"
)

const pitchSystemPrompt = `You are a professional food critic. Write exactly ONE mouth-watering sentence per recipe. Format: "1. [Recipe Name]: [flavor description]". Never mention missing ingredients, cooking times, or health stats. Do not explain your reasoning.

You are also a dietary auditor. You can tell actual animal meat apart from plant-based alternatives.
- Vegetarian users: reject a recipe only when animal flesh (chicken, beef, fish) is an actual ingredient. Dish names such as 'Mushroom Shawarma' are safe.
- Vegan users: same as vegetarian, and also reject real dairy or eggs unless they are plant-based ('almond milk', 'vegan egg').
- Pescatarian users: reject land meat, allow fish and seafood.
Judge ingredients, not dish names. 'Chickpea' is safe, 'Chicken' is not.`

const safetyJuryRule = `SAFETY VALIDATION RULE: If a recipe lists ingredients to check, inspect them. If it is a plant-based version (e.g., 'vegan butter', 'plant-based egg'), approve it with a one-sentence description. If you find a REAL intolerance ingredient (e.g., 'butter' without 'vegan', 'egg' without 'vegan'), respond ONLY with '` + RejectionMarker + `' for that recipe on its numbered line.`

const noAdvice = `ZERO advice: Never mention missing ingredients, cooking times, or health stats.
Just give the hook and stop talking.`

// PitchResult 推薦文案
type PitchResult struct {
	Text       string
	Top        *recipe.Result
	Comparison []recipe.Result
	// Generated 為 true 表示文字來自 LLM，才需要檢查拒絕標記
	Generated bool
}

// MatchDescription 將信心分數轉成給 LLM 的描述
func MatchDescription(confidence float64) string {
	switch {
	case confidence >= 90:
		return "Perfect for your current mood"
	case confidence >= 80:
		return "Great match for you"
	default:
		return "Good option"
	}
}

// Pitch 為前幾名食譜產生簡短推薦文案，tired 心情只介紹第一名
func (a *Assistant) Pitch(ctx context.Context, results []recipe.Result, mood string) PitchResult {
	if len(results) == 0 {
		if !a.Available() {
			return PitchResult{Text: noRecommendationsPitch}
		}
		return PitchResult{Text: noMatchesPitch}
	}

	tired := strings.EqualFold(strings.TrimSpace(mood), recipe.MoodTired)
	top := results[0]
	out := PitchResult{
		Text: fmt.Sprintf(fallbackPitch, titleOr(top.Title)),
		Top:  &top,
	}
	if !a.Available() {
		return out
	}
	if !tired {
		out.Comparison = results
	}

	text, err := a.llm.GenerateText(ctx, buildPitchPrompt(results, tired), pitchSystemPrompt)
	if err != nil {
		common.LogWarn("推薦文案產生失敗，使用預設文案",
			zap.String("mood", mood),
			zap.Error(err),
		)
		return out
	}
	if text = strings.TrimSpace(text); text == "" {
		return out
	}
	out.Text = text
	out.Generated = true
	return out
}

func buildPitchPrompt(results []recipe.Result, tired bool) string {
	var b strings.Builder
	for _, r := range results {
		if r.RequiresAIValidation() {
			b.WriteString(safetyJuryRule)
			b.WriteString("\n\n")
			break
		}
	}

	if tired {
		top := results[0]
		fmt.Fprintf(&b, "Top Recipe: %s\nWhy it fits: %s\n", top.Title, MatchDescription(top.MatchConfidence))
		if top.RequiresAIValidation() {
			fmt.Fprintf(&b, "\nIngredients to check: %s\n", strings.Join(ingredientNames(top.ExtendedIngredients, 10), ", "))
		}
		fmt.Fprintf(&b, "\nWrite exactly ONE sentence in this format:\n\"1. %s: [flavor description]\"\n\n", top.Title)
		b.WriteString(noAdvice)
		return b.String()
	}

	fmt.Fprintf(&b, "Top %d Recipes:\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, r.Title, MatchDescription(r.MatchConfidence))
	}
	for i, r := range results {
		if r.RequiresAIValidation() {
			fmt.Fprintf(&b, "Recipe %d (%s) ingredients: %s\n", i+1, r.Title,
				strings.Join(ingredientNames(r.ExtendedIngredients, 10), ", "))
		}
	}

	fmt.Fprintf(&b, "\nWrite exactly %d sentences in this format:\n", len(results))
	for i := range results {
		fmt.Fprintf(&b, "\"%d. [Recipe Name]: [flavor description]\"\n", i+1)
	}
	b.WriteString("\n")
	b.WriteString(noAdvice)
	fmt.Fprintf(&b, "\nONLY include these %d recipes, in this order.", len(results))
	return b.String()
}
