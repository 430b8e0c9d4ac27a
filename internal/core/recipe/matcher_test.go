package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchIngredients(t *testing.T) {
	pantry := NormalizePantry([]string{"Chicken", "rice", " tomatoes "})

	manifest := []Ingredient{
		{Name: "chicken breast"},
		{Name: "white rice"},
		{Name: "tomato"},
		{Name: "olive oil"},
	}

	used, missing := MatchIngredients(pantry, manifest)
	assert.Equal(t, 3, used)
	assert.Equal(t, 1, missing)
	assert.Equal(t, len(manifest), used+missing)
}

func TestMatchIngredients_EmptyManifest(t *testing.T) {
	used, missing := MatchIngredients([]string{"rice"}, nil)
	assert.Zero(t, used)
	assert.Zero(t, missing)
}

func TestMatchIngredients_EmptyNameIsMissing(t *testing.T) {
	used, missing := MatchIngredients([]string{"rice"}, []Ingredient{{Name: ""}, {Name: "rice"}})
	assert.Equal(t, 1, used)
	assert.Equal(t, 1, missing)
}

func TestMatchIngredients_SumAlwaysEqualsManifest(t *testing.T) {
	pantries := [][]string{nil, {"egg"}, {"flour", "sugar", "milk"}}
	manifests := [][]Ingredient{
		{},
		{{Name: "eggs"}, {Name: "milk"}},
		{{Name: "all-purpose flour"}, {Original: "2 cups sugar"}, {Name: "salt"}, {Name: ""}},
	}
	for _, p := range pantries {
		for _, m := range manifests {
			used, missing := MatchIngredients(NormalizePantry(p), m)
			assert.Equal(t, len(m), used+missing)
		}
	}
}

func TestPartitionIngredients(t *testing.T) {
	used, missing := PartitionIngredients([]string{"rice"}, []Ingredient{{Name: "Rice"}, {Name: "Soy Sauce"}})
	assert.Equal(t, []string{"rice"}, used)
	assert.Equal(t, []string{"soy sauce"}, missing)
}

func TestNormalizePantry(t *testing.T) {
	got := NormalizePantry([]string{"Rice", "rice ", "", "  ", "Eggs"})
	assert.Equal(t, []string{"rice", "eggs"}, got)
}

func TestTopIngredients(t *testing.T) {
	pantry := []string{"saffron", "rice", "chicken", "garlic"}
	candidates := []Candidate{
		newCandidate(1, "a", "rice", "chicken"),
		newCandidate(2, "b", "rice", "garlic"),
		newCandidate(3, "c", "rice", "chicken thigh"),
	}

	top := TopIngredients(pantry, candidates, 3)
	assert.Equal(t, []string{"rice", "chicken", "garlic"}, top)

	assert.Equal(t, []string{"rice"}, TopIngredients([]string{"rice"}, nil, 3))
}
