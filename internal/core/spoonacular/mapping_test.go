package spoonacular

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCandidate(t *testing.T) {
	r := Recipe{
		ID:                  5,
		Title:               "Veggie Curry",
		Diets:               []string{"Vegan", "dairy free"},
		ExtendedIngredients: json.RawMessage(`[{"id":1,"name":"Chickpeas","original":"1 can chickpeas"},{"id":2,"name":"coconut milk"}]`),
		Nutrition:           json.RawMessage(`{"nutrients":[{"name":"Protein","amount":12.5,"unit":"g"}]}`),
	}

	c := ToCandidate(r, SourceAPI)

	assert.Nil(t, c.ReadyInMinutes)
	assert.True(t, c.Flags.Vegan)
	assert.True(t, c.Flags.Vegetarian)
	assert.True(t, c.Flags.DairyFree)
	assert.False(t, c.Flags.GlutenFree)
	require.Len(t, c.Ingredients, 2)
	assert.Equal(t, "chickpeas", c.Ingredients[0].Text())
	assert.Equal(t, 12.5, c.Nutrients["Protein"])
	assert.JSONEq(t, string(r.ExtendedIngredients), string(c.ExtendedIngredients))
}

func TestToCandidateUsesUsedAndMissedLists(t *testing.T) {
	r := Recipe{
		ID:                    6,
		UsedIngredients:       []Ingredient{{Name: "egg"}},
		MissedIngredients:     []Ingredient{{Name: "flour"}, {Name: "sugar"}},
		UsedIngredientCount:   1,
		MissedIngredientCount: 2,
	}

	c := ToCandidate(r, SourceAPI)
	assert.Equal(t, "Unknown Recipe", c.Title)
	assert.Len(t, c.Ingredients, 3)
	assert.Equal(t, 1, c.UsedCount)
	assert.Equal(t, 2, c.MissedCount)
}

func TestDecodeRecipes(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{
			name: "array",
			raw:  `[{"id":1,"title":"A"},{"id":2,"title":"B"}]`,
			want: []string{"A", "B"},
		},
		{
			name: "fenced array with prose",
			raw:  "Here you go:\n```json\n[{\"title\":\"Fenced\"}]\n```",
			want: []string{"Fenced"},
		},
		{
			name: "single object with nested array",
			raw:  `{"title":"Solo","extendedIngredients":[{"name":"egg"}]}`,
			want: []string{"Solo"},
		},
		{
			name:    "no json",
			raw:     "Sorry, I cannot help with that.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRecipes(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			titles := make([]string, len(got))
			for i, r := range got {
				titles[i] = r.Title
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestSubstitutesBest(t *testing.T) {
	var nilSubs *Substitutes
	assert.Empty(t, nilSubs.Best())
	assert.Empty(t, (&Substitutes{Substitutes: []string{" "}}).Best())
	assert.Equal(t, "oil", (&Substitutes{Substitutes: []string{"", "oil"}}).Best())
}
