package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

var (
	emptyArray  = json.RawMessage("[]")
	emptyObject = json.RawMessage("{}")
)

// 每克蛋白質對應熱量的警示門檻
const calorieProteinRatioLimit = 25.0

// Assemble 將各階段結果組成對外輸出，原始 JSON 欄位原樣保留
func Assemble(c *Candidate, score ScoreBundle, outcome FilterOutcome, verdict SafetyVerdict, r Reasoning, s Settings) Result {
	protein, _ := c.Nutrient("Protein")
	carbs, _ := c.Nutrient("Carbohydrates")
	calories, _ := c.Nutrient("Calories")
	fat, _ := c.Nutrient("Fat")
	ready, _ := c.ReadyTime()

	extended := extendedIngredients(c)

	res := Result{
		ID:                   c.ID,
		Title:                titleOrDefault(c.Title),
		Image:                c.Image,
		Confidence:           r.Confidence,
		MatchConfidence:      r.Confidence,
		Time:                 ready,
		Reasoning:            r.Text,
		SemanticContext:      SemanticContext(c, r, outcome, verdict, s, protein, calories),
		ExtendedIngredients:  extended,
		Servings:             c.Servings,
		Instructions:         c.Instructions,
		AnalyzedInstructions: rawOr(c.AnalyzedInstructions, emptyArray),
		RawIngredientsForAI:  extended,
		Nutrition:            rawOr(c.Nutrition, emptyObject),
		Cuisines:             nonNil(c.Cuisines),
		DishTypes:            nonNil(c.DishTypes),
		Diets:                nonNil(c.Diets),
		UsedIngredients:      c.UsedCount,
		MissingIngredients:   c.MissedCount,
		Difficulty:           outcome.Results.Difficulty.Level,
		Protein:              protein,
		Calories:             calories,
		Carbs:                carbs,
		NutritionSummary:     NutritionSummary{Protein: protein, Calories: calories, Fat: fat, Carbs: carbs},
		AINutrientFlags:      map[string]bool{},
		IsStubRecipe:         isStub(c),
		Source:               c.Source,
		Metadata: Metadata{
			SmartScore:       score.SmartScore,
			InternalDebug:    r.Debug,
			ScoringBreakdown: score.Breakdown,
			UsedScore:        score.UsedScore,
			MissingScore:     score.MissingScore,
			FilterResults:    outcome.Results,
			SafetyCheck:      verdict,
			PenaltyApplied:   r.PenaltyApplied,
			PenaltyScore:     outcome.PenaltyScore,
			Violations:       nonNil(outcome.Violations),
			ViolationFlags:   outcome.Flags(),
		},
	}
	return res
}

// SemanticContext 產生給 LLM 的分析重點提示
func SemanticContext(c *Candidate, r Reasoning, outcome FilterOutcome, verdict SafetyVerdict, s Settings, protein, calories float64) string {
	flags := outcome.Flags()
	parts := []string{fmt.Sprintf("This recipe is a %.0f%% match", r.Confidence)}

	if flags.HasTimeViolation {
		parts = append(parts,
			"but exceeds time limit.",
			"AI, check analyzedInstructions for ways to save time or simplify steps.")
	}
	if flags.HasMissingViolation {
		parts = append(parts,
			"but requires additional ingredients.",
			"AI, analyze extendedIngredients and suggest substitutions from user's pantry.")
	}
	if flags.HasDifficultyViolation {
		parts = append(parts,
			"but may be too complex.",
			"AI, review analyzedInstructions to identify simplification opportunities.")
	}

	if c.Servings > 0 && calories > 0 && protein > 0 {
		// 每份的比值與總量比值相同
		if ratio := calories / protein; ratio > calorieProteinRatioLimit {
			parts = append(parts,
				fmt.Sprintf("Has high calorie-to-protein ratio (%.1f).", ratio),
				"AI, check instructions to see if sauce can be lightened using user's available ingredients.")
		}
	}

	if goals := highGoals(s.NutritionalRequirements); len(goals) > 0 {
		parts = append(parts,
			fmt.Sprintf("User wants high %s.", strings.Join(goals, ", ")),
			"AI, evaluate if this recipe fits the user's nutritional goals by analyzing extendedIngredients and instructions.")
	}

	if verdict.RequiresAIValidation {
		if alts := verdict.SafeAlternativeIndicators; len(alts) > 0 {
			parts = append(parts,
				fmt.Sprintf("AI, act as Safety Jury: Found potential safe alternatives (%s).", strings.Join(firstN(alts, 2), ", ")),
				"Review extendedIngredients and instructions to confirm safety for user's intolerances.")
		} else {
			parts = append(parts,
				fmt.Sprintf("AI, act as Safety Jury: Found suspicious ingredients (%s).", strings.Join(firstN(verdict.SuspiciousIngredients, 2), ", ")),
				"Review extendedIngredients and instructions to validate ingredient safety for user's intolerances.")
		}
	}

	return strings.Join(parts, " ")
}

// SortByConfidence 依信心分數由高到低排序，同分時比較內部分數
func SortByConfidence(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].Metadata.InternalDebug.InternalScore > results[j].Metadata.InternalDebug.InternalScore
	})
}

// isStub 缺少營養、步驟、份量或材料的資料視為簡略食譜
func isStub(c *Candidate) bool {
	return isEmptyJSON(c.Nutrition) ||
		strings.TrimSpace(c.Instructions) == "" ||
		isEmptyJSON(c.AnalyzedInstructions) ||
		c.Servings == 0 ||
		isEmptyJSON(c.ExtendedIngredients)
}

func highGoals(reqs map[string]float64) []string {
	var goals []string
	for k := range reqs {
		lower := strings.ToLower(k)
		if strings.HasPrefix(lower, "high_") {
			goals = append(goals, strings.ReplaceAll(strings.TrimPrefix(lower, "high_"), "_", " "))
		}
	}
	sort.Strings(goals)
	return goals
}

func isEmptyJSON(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null")) || bytes.Equal(t, []byte("[]")) ||
		bytes.Equal(t, []byte("{}")) || bytes.Equal(t, []byte(`""`))
}

// extendedIngredients 沒有原始材料區塊時（如 stub 食譜）改用比對用的材料清單
func extendedIngredients(c *Candidate) json.RawMessage {
	if !isEmptyJSON(c.ExtendedIngredients) || len(c.Ingredients) == 0 {
		return rawOr(c.ExtendedIngredients, emptyArray)
	}
	raw, err := json.Marshal(c.Ingredients)
	if err != nil {
		return emptyArray
	}
	return raw
}

func rawOr(raw, fallback json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return fallback
	}
	return raw
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func titleOrDefault(t string) string {
	if strings.TrimSpace(t) == "" {
		return "Unknown Recipe"
	}
	return t
}
