package recipe

import "encoding/json"

func intPtr(v int) *int { return &v }

// newCandidate 以材料名稱建立測試用候選食譜
func newCandidate(id int64, title string, ingredients ...string) Candidate {
	ings := make([]Ingredient, 0, len(ingredients))
	for _, name := range ingredients {
		ings = append(ings, Ingredient{Name: name, Original: "1 cup " + name})
	}
	raw, _ := json.Marshal(ings)
	return Candidate{
		ID:                   id,
		Title:                title,
		Ingredients:          ings,
		ExtendedIngredients:  raw,
		AnalyzedInstructions: json.RawMessage(`[{"name":"","steps":[{"number":1,"step":"Cook."}]}]`),
		Nutrition:            json.RawMessage(`{"nutrients":[{"name":"Calories","amount":300,"unit":"kcal"}]}`),
		Instructions:         "Cook everything.",
		Servings:             2,
		Nutrients:            map[string]float64{"Calories": 300},
		Cuisines:             []string{},
		DishTypes:            []string{},
		Diets:                []string{},
	}
}
