package substitution

import (
	"context"
	"errors"
	"testing"

	"pantry-chef/internal/core/ai/assistant"
	"pantry-chef/internal/core/spoonacular"
	"pantry-chef/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	subs       *spoonacular.Substitutes
	subsErr    error
	similar    []spoonacular.SimilarRecipe
	similarErr error
	similarIDs []int64
}

func (f *fakeSource) Substitutes(_ context.Context, _ string) (*spoonacular.Substitutes, error) {
	return f.subs, f.subsErr
}

func (f *fakeSource) Similar(_ context.Context, id int64, _ int) ([]spoonacular.SimilarRecipe, error) {
	f.similarIDs = append(f.similarIDs, id)
	return f.similar, f.similarErr
}

type fakeAdvisor struct {
	available bool
	advice    assistant.Advice
	got       []assistant.SubstitutionRequest
}

func (f *fakeAdvisor) Available() bool { return f.available }

func (f *fakeAdvisor) Substitute(_ context.Context, req assistant.SubstitutionRequest) assistant.Advice {
	f.got = append(f.got, req)
	return f.advice
}

func TestHelpRequiresItem(t *testing.T) {
	h := NewHelper(&fakeSource{}, nil)
	_, err := h.Help(context.Background(), Request{MissingItem: "  "})
	assert.True(t, common.IsValidationError(err))
}

func TestHelpPrefersLLMAdvice(t *testing.T) {
	src := &fakeSource{subs: &spoonacular.Substitutes{Substitutes: []string{"1 cup = 1 cup yogurt"}}}
	adv := &fakeAdvisor{available: true, advice: assistant.Advice{Substitution: "Greek yogurt", ChefTip: "Stir gently", Source: assistant.AdviceLLM}}

	help, err := NewHelper(src, adv).Help(context.Background(), Request{
		MissingItem: "sour cream",
		RecipeTitle: "Tacos",
		Pantry:      []string{"yogurt"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Greek yogurt", help.BestOption)
	require.Len(t, adv.got, 1)
	assert.Equal(t, "1 cup = 1 cup yogurt", adv.got[0].APISubstitute)
	assert.Empty(t, src.similarIDs)
	assert.True(t, help.HasAnswer())
}

func TestHelpFallsBackToAPISubstitute(t *testing.T) {
	src := &fakeSource{subs: &spoonacular.Substitutes{Substitutes: []string{"", "applesauce"}}}
	adv := &fakeAdvisor{available: false}

	help, err := NewHelper(src, adv).Help(context.Background(), Request{MissingItem: "egg", Pantry: []string{"flour"}})
	require.NoError(t, err)
	assert.Equal(t, "applesauce", help.BestOption)
	assert.Nil(t, help.SmartRecommendation)
	assert.Empty(t, adv.got)
}

func TestHelpSkipsLLMWithoutPantry(t *testing.T) {
	adv := &fakeAdvisor{available: true}
	help, err := NewHelper(&fakeSource{}, adv).Help(context.Background(), Request{MissingItem: "basil"})
	require.NoError(t, err)
	assert.Empty(t, adv.got)
	assert.Equal(t, "Consider omitting basil", help.BestOption)
	assert.False(t, help.HasAnswer())
}

func TestHelpSimilarRecipe(t *testing.T) {
	src := &fakeSource{
		subsErr: errors.New("boom"),
		similar: []spoonacular.SimilarRecipe{{ID: 9, Title: "Pesto Pasta"}, {ID: 10, Title: "Caprese"}},
	}
	help, err := NewHelper(src, nil).Help(context.Background(), Request{MissingItem: "basil", RecipeID: 42})
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, src.similarIDs)
	assert.Equal(t, "Try similar recipe: Pesto Pasta", help.BestOption)
	assert.Equal(t, []string{"Pesto Pasta"}, help.SimilarTitles(1))
	assert.Nil(t, help.APISubstitutes)
}

func TestHelpSimilarErrorKeepsEmptyList(t *testing.T) {
	src := &fakeSource{similarErr: errors.New("down")}
	help, err := NewHelper(src, nil).Help(context.Background(), Request{MissingItem: "basil", RecipeID: 1})
	require.NoError(t, err)
	assert.NotNil(t, help.SimilarRecipes)
	assert.Empty(t, help.SimilarRecipes)
}

func TestBestOptionLLMEmptySubstitution(t *testing.T) {
	h := &Help{MissingItem: "mint", SmartRecommendation: &assistant.Advice{}}
	assert.Equal(t, "Consider omitting mint or using pantry alternatives", bestOption(h))
}

func TestParseMissingItem(t *testing.T) {
	cases := map[string]string{
		"I don't have eggs":             "eggs",
		"What if I'm missing butter?":   "butter",
		"There's no milk.":              "milk",
		"cilantro":                      "cilantro",
		"  Heavy Cream  ":               "Heavy Cream",
		"I DON'T HAVE Parmesan Cheese!": "parmesan cheese",
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseMissingItem(in), in)
	}
}
