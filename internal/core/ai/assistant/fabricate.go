package assistant

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"pantry-chef/internal/core/recipe"
	"pantry-chef/internal/core/spoonacular"
	"pantry-chef/internal/pkg/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FindRequest 請 LLM 補足候選食譜的條件
type FindRequest struct {
	Ingredients  []string
	Diet         string
	Count        int
	Cuisine      string
	MealType     string
	Intolerances []string
}

const findPrompt = `Find %d %s recipes using %s and any other filters the user put in.%s

Output them in the EXACT same JSON format as the Spoonacular API.

Required format (JSON array):
[
  {
    "id": <unique_number>,
    "title": "<recipe name>",
    "image": "<image URL or empty string>",
    "extendedIngredients": [{"name": "<ingredient name>", "original": "<amount> <unit> <name>"}],
    "instructions": "<step-by-step instructions>",
    "readyInMinutes": <number>,
    "servings": <number>,
    "cuisines": ["<cuisine>"],
    "dishTypes": ["<meal type>"],
    "diets": ["<diet>"],
    "nutrition": {"nutrients": [
      {"name": "Calories", "amount": <number>},
      {"name": "Protein", "amount": <number>},
      {"name": "Fat", "amount": <number>},
      {"name": "Carbohydrates", "amount": <number>}
    ]}
  }
]

CRITICAL:
- Output ONLY valid JSON, no markdown, no explanations
- Ensure all recipes match the diet filter: %s
- Ensure all recipes use the ingredients: %s
- Avoid these intolerances: %s
- Return exactly %d recipes`

// FindRecipes 請 LLM 以上游格式產生候選食譜，回傳的 ID 皆為負數以免與上游衝突
func (a *Assistant) FindRecipes(ctx context.Context, req FindRequest) ([]recipe.Candidate, error) {
	if !a.Available() {
		return nil, common.ErrLLMUnavailable
	}
	if len(req.Ingredients) == 0 {
		return nil, common.NewValidationError("no ingredients to search with")
	}
	if req.Count <= 0 {
		req.Count = 3
	}

	text, err := a.llm.GenerateText(ctx, buildFindPrompt(req), "")
	if err != nil {
		return nil, err
	}
	recipes, err := spoonacular.DecodeRecipes(text)
	if err != nil {
		common.LogWarn("LLM 食譜解析失敗", zap.Error(err))
		return nil, common.Wrap(common.ErrLLMMalformed, err)
	}
	if len(recipes) > req.Count {
		recipes = recipes[:req.Count]
	}

	out := make([]recipe.Candidate, 0, len(recipes))
	for _, r := range recipes {
		r.ID = fabricatedID()
		out = append(out, spoonacular.ToCandidate(r, spoonacular.SourceLLM))
	}
	common.LogInfo("LLM 補充候選食譜", zap.Int("requested", req.Count), zap.Int("returned", len(out)))
	return out, nil
}

func buildFindPrompt(req FindRequest) string {
	ingredients := strings.Join(req.Ingredients, ", ")
	diet := orNone(req.Diet)

	var extra []string
	if req.Cuisine != "" {
		extra = append(extra, "Cuisine: "+req.Cuisine)
	}
	if req.MealType != "" {
		extra = append(extra, "Meal type: "+req.MealType)
	}
	filters := ""
	if len(extra) > 0 {
		filters = "\n" + strings.Join(extra, "\n")
	}

	return fmt.Sprintf(findPrompt,
		req.Count, strings.TrimSpace(req.Diet), ingredients, filters,
		diet, ingredients, orNone(strings.Join(req.Intolerances, ", ")), req.Count,
	)
}

// fabricatedID 由隨機 UUID 產生負數 ID
func fabricatedID() int64 {
	u := uuid.New()
	return -int64(binary.BigEndian.Uint32(u[:4])) - 1
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}
