package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"pantry-chef/internal/core/recipe"
	"pantry-chef/internal/core/spoonacular"
	"pantry-chef/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	available bool
	text      string
	err       error
	prompts   []string
	systems   []string
}

func (f *fakeLLM) Available() bool { return f.available }

func (f *fakeLLM) GenerateText(_ context.Context, prompt, system string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.systems = append(f.systems, system)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, prompt, system string, out interface{}) error {
	text, err := f.GenerateText(ctx, prompt, system)
	if err != nil {
		return err
	}
	if err := common.DecodeLLMObject(text, out); err != nil {
		return common.Wrap(common.ErrLLMMalformed, err)
	}
	return nil
}

func online(text string) *fakeLLM { return &fakeLLM{available: true, text: text} }

func result(title string, confidence float64, flagged bool) recipe.Result {
	r := recipe.Result{
		Title:               title,
		MatchConfidence:     confidence,
		ExtendedIngredients: json.RawMessage(`[{"name":"almond milk"},{"name":"pasta"}]`),
	}
	r.Metadata.SafetyCheck.RequiresAIValidation = flagged
	return r
}

func TestPitchOffline(t *testing.T) {
	a := New(nil)

	p := a.Pitch(context.Background(), []recipe.Result{result("Pasta", 80, false)}, "casual")
	assert.Equal(t, "Here's Pasta for you!", p.Text)
	assert.False(t, p.Generated)
	require.NotNil(t, p.Top)
	assert.Equal(t, "Pasta", p.Top.Title)

	empty := a.Pitch(context.Background(), nil, "casual")
	assert.Equal(t, noRecommendationsPitch, empty.Text)
}

func TestPitchEmptyOnline(t *testing.T) {
	llm := online("unused")
	p := New(llm).Pitch(context.Background(), nil, "tired")
	assert.Equal(t, noMatchesPitch, p.Text)
	assert.Empty(t, llm.prompts)
}

func TestPitchTiredUsesTopRecipeOnly(t *testing.T) {
	llm := online("  1. Pasta: silky and rich.  ")
	results := []recipe.Result{result("Pasta", 92, true), result("Soup", 70, false)}

	p := New(llm).Pitch(context.Background(), results, "Tired")
	assert.True(t, p.Generated)
	assert.Equal(t, "1. Pasta: silky and rich.", p.Text)
	assert.Empty(t, p.Comparison)

	require.Len(t, llm.prompts, 1)
	prompt := llm.prompts[0]
	assert.Contains(t, prompt, "Top Recipe: Pasta")
	assert.Contains(t, prompt, "Perfect for your current mood")
	assert.Contains(t, prompt, "Ingredients to check: almond milk, pasta")
	assert.Contains(t, prompt, RejectionMarker)
	assert.NotContains(t, prompt, "Soup")
	assert.Equal(t, pitchSystemPrompt, llm.systems[0])
}

func TestPitchComparisonPrompt(t *testing.T) {
	llm := online("1. A: x\n2. B: y\n3. C: z")
	results := []recipe.Result{result("A", 85, false), result("B", 75, false), result("C", 60, false)}

	p := New(llm).Pitch(context.Background(), results, "energetic")
	assert.Len(t, p.Comparison, 3)

	prompt := llm.prompts[0]
	assert.Contains(t, prompt, "1. A (Great match for you)")
	assert.Contains(t, prompt, "2. B (Good option)")
	assert.Contains(t, prompt, "Write exactly 3 sentences")
	assert.NotContains(t, prompt, "SAFETY VALIDATION RULE")
}

func TestPitchFallsBackOnError(t *testing.T) {
	llm := &fakeLLM{available: true, err: common.ErrLLMRateLimited}
	p := New(llm).Pitch(context.Background(), []recipe.Result{result("Stew", 80, false)}, "casual")
	assert.Equal(t, "Here's Stew for you!", p.Text)
	assert.False(t, p.Generated)
}

func TestMatchDescription(t *testing.T) {
	assert.Equal(t, "Perfect for your current mood", MatchDescription(90))
	assert.Equal(t, "Great match for you", MatchDescription(80))
	assert.Equal(t, "Good option", MatchDescription(79.9))
}

func TestCategorizeKeywordFallback(t *testing.T) {
	cats := New(nil).CategorizeIngredients(context.Background(),
		[]string{"Chicken Breast", "cumin", "rice", "parsley"})
	assert.Equal(t, []string{"Chicken Breast", "rice"}, cats.Core)
	assert.Equal(t, []string{"cumin", "parsley"}, cats.Secondary)
	assert.False(t, cats.Generated)

	none := New(nil).CategorizeIngredients(context.Background(),
		[]string{"cumin", "paprika", "basil", "lime"})
	assert.Equal(t, []string{"cumin", "paprika", "basil"}, none.Core)
	assert.Equal(t, []string{"lime"}, none.Secondary)
}

func TestCategorizeWithLLM(t *testing.T) {
	llm := online("```json\n{\"core\": [\"beef\"], \"secondary\": [\"thyme\"]}\n```")
	cats := New(llm).CategorizeIngredients(context.Background(), []string{"beef", "thyme", "Capers"})
	assert.True(t, cats.Generated)
	assert.Equal(t, []string{"beef"}, cats.Core)
	assert.Equal(t, []string{"thyme", "Capers"}, cats.Secondary)
}

func TestCategorizeEmptyCoreUsesFirstThree(t *testing.T) {
	llm := online(`{"core": [], "secondary": ["a", "b", "c", "d"]}`)
	cats := New(llm).CategorizeIngredients(context.Background(), []string{"a", "b", "c", "d"})
	assert.Equal(t, []string{"a", "b", "c"}, cats.Core)
	assert.Equal(t, []string{"d"}, cats.Secondary)
}

func TestCategorizeMalformedFallsBack(t *testing.T) {
	llm := online(`{"core": ["beef"]}`)
	cats := New(llm).CategorizeIngredients(context.Background(), []string{"beef", "thyme"})
	assert.False(t, cats.Generated)
	assert.Equal(t, []string{"beef"}, cats.Core)
	assert.Equal(t, []string{"thyme"}, cats.Secondary)
}

func TestFindRecipes(t *testing.T) {
	llm := online(`Here you go:
[
  {"id": 1, "title": "Veggie Curry", "readyInMinutes": 30, "diets": ["vegan"],
   "extendedIngredients": [{"name": "chickpeas"}, {"name": "coconut milk"}]},
  {"id": 2, "title": "Lentil Soup"},
  {"id": 3, "title": "Extra"}
]`)
	got, err := New(llm).FindRecipes(context.Background(), FindRequest{
		Ingredients: []string{"chickpeas"},
		Diet:        "vegan",
		Count:       2,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Veggie Curry", got[0].Title)
	assert.Equal(t, spoonacular.SourceLLM, got[0].Source)
	assert.Less(t, got[0].ID, int64(0))
	assert.Less(t, got[1].ID, int64(0))
	assert.NotEqual(t, got[0].ID, got[1].ID)
	assert.True(t, got[0].Flags.Vegan)
	assert.Len(t, got[0].Ingredients, 2)

	prompt := llm.prompts[0]
	assert.Contains(t, prompt, "Find 2 vegan recipes using chickpeas")
	assert.Contains(t, prompt, "Avoid these intolerances: none")
}

func TestFindRecipesErrors(t *testing.T) {
	_, err := New(nil).FindRecipes(context.Background(), FindRequest{Ingredients: []string{"x"}})
	assert.ErrorIs(t, err, common.ErrLLMUnavailable)

	_, err = New(online("sorry, no recipes")).FindRecipes(context.Background(), FindRequest{Ingredients: []string{"x"}})
	assert.ErrorIs(t, err, common.ErrLLMMalformed)

	_, err = New(online("[]")).FindRecipes(context.Background(), FindRequest{})
	assert.True(t, common.IsValidationError(err))
}

func TestSubstituteOffline(t *testing.T) {
	a := New(nil)

	withAPI := a.Substitute(context.Background(), SubstitutionRequest{MissingItem: "butter", APISubstitute: "1 cup margarine"})
	assert.Equal(t, "1 cup margarine", withAPI.Substitution)
	assert.Equal(t, offlineTip, withAPI.ChefTip)
	assert.Equal(t, AdviceOffline, withAPI.Source)

	without := a.Substitute(context.Background(), SubstitutionRequest{MissingItem: "saffron"})
	assert.Equal(t, "Try omitting saffron.", without.Substitution)
}

func TestSubstituteParsesLines(t *testing.T) {
	llm := online("Sure!\nsubstitution: olive oil + pinch of salt\nTIP: Chef's Secret hack, use half the amount.")
	got := New(llm).Substitute(context.Background(), SubstitutionRequest{
		MissingItem:   "butter",
		RecipeTitle:   "Garlic Bread",
		Pantry:        []string{"olive oil", "salt"},
		APISubstitute: "margarine",
	})
	assert.Equal(t, "olive oil + pinch of salt", got.Substitution)
	assert.Equal(t, "Chef's Secret hack, use half the amount.", got.ChefTip)
	assert.Equal(t, AdviceLLM, got.Source)
	assert.Contains(t, llm.prompts[0], "Spoonacular API suggests: margarine")
	assert.Contains(t, llm.prompts[0], "make Garlic Bread but they are missing butter")
}

func TestSubstituteDefaults(t *testing.T) {
	got := parseAdvice("I am not sure.")
	assert.Equal(t, defaultSubstitution, got.Substitution)
	assert.Equal(t, defaultTip, got.ChefTip)

	busy := New(&fakeLLM{available: true, err: errors.New("boom")}).
		Substitute(context.Background(), SubstitutionRequest{MissingItem: "basil"})
	assert.Equal(t, busySubstitution, busy.Substitution)
	assert.Equal(t, busyTip, busy.ChefTip)
	assert.Equal(t, AdviceFallback, busy.Source)
}

func TestValidateRecipe(t *testing.T) {
	llm := online(`{"actual_cuisines": ["indian"], "is_vegetarian": false, "matches_user_diet": false,
		"intolerance_safe": true, "safe_for_user": false, "rejection_reason": "Contains chicken", "confidence": "high"}`)

	c := &recipe.Candidate{
		Title:       "Chicken Tikka",
		Ingredients: []recipe.Ingredient{{Name: "chicken", Original: "2 chicken thighs"}, {Name: "yogurt"}},
	}
	s := recipe.Settings{DietaryRequirements: []string{"vegetarian"}, Intolerances: []string{"dairy"}}

	v := New(llm).ValidateRecipe(context.Background(), NewValidationRequest(c, s, "indian", ""))
	assert.True(t, v.Validated)
	assert.False(t, v.SafeForUser)
	assert.False(t, v.MatchesUserDiet)
	assert.True(t, v.MatchesUserCuisine)
	assert.Equal(t, "Contains chicken", v.RejectionReason)
	assert.Equal(t, []string{"indian"}, v.ActualCuisines)

	prompt := llm.prompts[0]
	assert.Contains(t, prompt, "- 2 chicken thighs")
	assert.Contains(t, prompt, "- yogurt")
	assert.Contains(t, prompt, "Diet: vegetarian")
	assert.Contains(t, prompt, "Intolerances: dairy")
	assert.Contains(t, prompt, "Preferred Cuisine: indian")
	assert.Contains(t, prompt, "No instructions provided")
}

func TestValidateRecipeDefaults(t *testing.T) {
	v := New(nil).ValidateRecipe(context.Background(), ValidationRequest{Title: "x"})
	assert.Equal(t, DefaultValidation(), v)
	assert.True(t, v.SafeForUser)
	assert.Equal(t, "low", v.Confidence)

	bad := New(online("not json")).ValidateRecipe(context.Background(), ValidationRequest{Title: "x"})
	assert.False(t, bad.Validated)
	assert.True(t, bad.SafeForUser)
}
