package recipe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assemble(c Candidate, s Settings) Result {
	s = s.WithDefaults()
	verdict := NewSafetyGate().Check(&c, s)
	outcome := NewFilterChain().Evaluate(&c, s)
	score := Score(c.UsedCount, c.MissedCount, s.Profile)
	return Assemble(&c, score, outcome, verdict, Reason(&c, score, outcome, s), s)
}

func TestAssemble_PreservesRawBlocksVerbatim(t *testing.T) {
	extended := json.RawMessage(`[{"id":1,"name":"rice","original":"1 cup  rice","amount":1.0,"unitShort":"cup","measures":{"us":{"amount":1}}}]`)
	nutrition := json.RawMessage(`{"nutrients":[{"name":"Calories","amount":210.5,"unit":"kcal","percentOfDailyNeeds":10.5}],"weightPerServing":{"amount":150,"unit":"g"}}`)
	c := withCounts(newCandidate(7, "Rice", "rice"), 1, 0)
	c.ExtendedIngredients = extended
	c.Nutrition = nutrition

	res := assemble(c, Settings{})

	assert.Equal(t, []byte(extended), []byte(res.ExtendedIngredients))
	assert.Equal(t, []byte(extended), []byte(res.RawIngredientsForAI))
	assert.Equal(t, []byte(nutrition), []byte(res.Nutrition))

	out, err := json.Marshal(res)
	require.NoError(t, err)
	var back struct {
		ExtendedIngredients json.RawMessage `json:"extendedIngredients"`
		Nutrition           json.RawMessage `json:"nutrition"`
	}
	require.NoError(t, json.Unmarshal(out, &back))
	assert.JSONEq(t, string(extended), string(back.ExtendedIngredients))
	assert.JSONEq(t, string(nutrition), string(back.Nutrition))
}

func TestAssemble_TopLevelAndMetadata(t *testing.T) {
	c := withCounts(withReady(newCandidate(3, "Pasta", "pasta", "tomato"), 25), 2, 0)
	c.Nutrients = map[string]float64{"Protein": 12, "Calories": 480, "Fat": 9, "Carbohydrates": 70}

	res := assemble(c, Settings{Profile: "balanced"})

	assert.Equal(t, int64(3), res.ID)
	assert.Equal(t, res.Confidence, res.MatchConfidence)
	assert.Equal(t, 25, res.Time)
	assert.Equal(t, Easy, res.Difficulty)
	assert.Equal(t, NutritionSummary{Protein: 12, Calories: 480, Fat: 9, Carbs: 70}, res.NutritionSummary)
	assert.Equal(t, 100.0, res.Metadata.SmartScore)
	assert.Equal(t, "0.5×100.0% + 0.5×100.0% = 50.0 + 50.0", res.Metadata.ScoringBreakdown)
	assert.NotNil(t, res.AINutrientFlags)
	assert.False(t, res.IsStubRecipe)

	out, err := json.Marshal(res)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(out, &generic))
	assert.NotContains(t, generic, "smart_score")
	meta, ok := generic["_metadata"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"smart_score", "internal_debug", "scoring_breakdown", "filter_results", "safety_check", "penalty_score", "violations", "violation_flags"} {
		assert.Contains(t, meta, key)
	}
	flags := meta["violation_flags"].(map[string]any)
	assert.Len(t, flags, 5)
}

func TestAssemble_StubDetection(t *testing.T) {
	c := withCounts(newCandidate(1, "", "rice"), 1, 0)
	c.AnalyzedInstructions = nil
	c.Nutrition = nil

	res := assemble(c, Settings{})

	assert.True(t, res.IsStubRecipe)
	assert.Equal(t, "Unknown Recipe", res.Title)
	assert.JSONEq(t, `[]`, string(res.AnalyzedInstructions))
	assert.JSONEq(t, `{}`, string(res.Nutrition))
}

func TestAssemble_StubIngredientsFromManifest(t *testing.T) {
	c := withCounts(newCandidate(1, "Fried Rice", "rice", "egg"), 1, 1)
	c.ExtendedIngredients = nil

	res := assemble(c, Settings{})

	assert.True(t, res.IsStubRecipe)
	var items []Ingredient
	require.NoError(t, json.Unmarshal(res.ExtendedIngredients, &items))
	require.Len(t, items, 2)
	assert.Equal(t, "rice", items[0].Name)
	assert.Equal(t, "egg", items[1].Name)
	assert.JSONEq(t, string(res.ExtendedIngredients), string(res.RawIngredientsForAI))
}

func TestSemanticContext(t *testing.T) {
	t.Run("violations", func(t *testing.T) {
		c := withCounts(withReady(newCandidate(1, "Slow", "a", "b", "c"), 90), 1, 5)
		res := assemble(c, Settings{MaxTimeMinutes: 30, MaxMissing: 2, MaxDifficulty: Easy})
		assert.Contains(t, res.SemanticContext, "This recipe is a ")
		assert.Contains(t, res.SemanticContext, "but exceeds time limit. AI, check analyzedInstructions for ways to save time or simplify steps.")
		assert.Contains(t, res.SemanticContext, "but requires additional ingredients.")
		assert.Contains(t, res.SemanticContext, "but may be too complex.")
	})

	t.Run("calorie to protein ratio", func(t *testing.T) {
		c := withCounts(newCandidate(1, "Cake", "sugar"), 1, 0)
		c.Nutrients = map[string]float64{"Calories": 600, "Protein": 10}
		res := assemble(c, Settings{})
		assert.Contains(t, res.SemanticContext, "Has high calorie-to-protein ratio (60.0).")
	})

	t.Run("nutritional goals", func(t *testing.T) {
		c := withCounts(newCandidate(1, "Salad", "spinach"), 1, 0)
		res := assemble(c, Settings{NutritionalRequirements: map[string]float64{"high_vitamin_c": 30, "low_fat": 10}})
		assert.Contains(t, res.SemanticContext, "User wants high vitamin c.")
	})

	t.Run("safety jury", func(t *testing.T) {
		c := withCounts(newCandidate(1, "Smoothie", "almond milk", "banana"), 2, 0)
		res := assemble(c, Settings{Intolerances: []string{"dairy"}})
		assert.True(t, res.RequiresAIValidation())
		assert.Contains(t, res.SemanticContext, "AI, act as Safety Jury: Found potential safe alternatives (almond milk).")
	})

	t.Run("clean", func(t *testing.T) {
		c := withCounts(withReady(newCandidate(1, "Toast", "bread"), 5), 1, 0)
		res := assemble(c, Settings{})
		assert.Equal(t, "This recipe is a 95% match", res.SemanticContext)
	})
}

func TestSortByConfidence(t *testing.T) {
	results := []Result{
		{ID: 1, Confidence: 60},
		{ID: 2, Confidence: 90},
		{ID: 3, Confidence: 90, Metadata: Metadata{InternalDebug: InternalDebug{InternalScore: 80}}},
		{ID: 4, Confidence: 75},
	}

	SortByConfidence(results)

	ids := make([]int64, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{3, 2, 4, 1}, ids)
}
