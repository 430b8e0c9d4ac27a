package assistant

import (
	"context"
	"fmt"
	"strings"

	"pantry-chef/internal/pkg/common"

	"go.uber.org/zap"
)

// Categories 核心與次要食材
type Categories struct {
	Core      []string `json:"core"`
	Secondary []string `json:"secondary"`
	// Generated 為 true 表示分類來自 LLM
	Generated bool `json:"-"`
}

var corePatterns = []string{
	"chicken", "beef", "pork", "fish", "tofu",
	"rice", "pasta", "potato", "bread", "flour",
	"egg", "milk", "cheese", "tomato", "onion", "garlic",
}

const categorizePrompt = `You are a professional chef categorizing ingredients for recipe search optimization.

User's pantry ingredients: %s

Categorize these ingredients into two groups:

1. CORE ingredients: Main proteins (chicken, beef, fish, tofu, eggs), starches (rice, pasta, potatoes, bread, flour), and essential bases (milk, cheese, tomatoes, onions, garlic).

2. SECONDARY ingredients: Spices, herbs, garnishes, condiments, and minor vegetables. These enhance flavor but aren't essential for finding recipes.

Return ONLY a JSON object in this exact format:
{"core": ["ingredient1", ...], "secondary": ["ingredient2", ...]}

Every ingredient must appear in exactly one list.`

// CategorizeIngredients 將食材分為核心與次要，失敗時改用關鍵字分類
func (a *Assistant) CategorizeIngredients(ctx context.Context, ingredients []string) Categories {
	if len(ingredients) == 0 {
		return Categories{Core: []string{}, Secondary: []string{}}
	}
	if !a.Available() {
		return keywordCategories(ingredients)
	}

	var raw struct {
		Core      *[]string `json:"core"`
		Secondary *[]string `json:"secondary"`
	}
	prompt := fmt.Sprintf(categorizePrompt, strings.Join(ingredients, ", "))
	if err := a.llm.GenerateJSON(ctx, prompt, "", &raw); err != nil {
		common.LogWarn("食材分類失敗，改用關鍵字分類", zap.Error(err))
		return keywordCategories(ingredients)
	}
	if raw.Core == nil || raw.Secondary == nil {
		common.LogWarn("食材分類回應缺少欄位，改用關鍵字分類")
		return keywordCategories(ingredients)
	}

	core := cleanList(*raw.Core)
	secondary := cleanList(*raw.Secondary)

	seen := make(map[string]bool, len(core)+len(secondary))
	for _, s := range core {
		seen[strings.ToLower(s)] = true
	}
	for _, s := range secondary {
		seen[strings.ToLower(s)] = true
	}
	for _, ing := range ingredients {
		if !seen[strings.ToLower(ing)] {
			secondary = append(secondary, ing)
		}
	}

	if len(core) == 0 {
		core = firstThree(ingredients)
		secondary = without(ingredients, core)
	}
	return Categories{Core: core, Secondary: secondary, Generated: true}
}

// keywordCategories 以常見主食材關鍵字分類，沒有命中時取前三項為核心
func keywordCategories(ingredients []string) Categories {
	var core []string
	for _, ing := range ingredients {
		lower := strings.ToLower(ing)
		for _, p := range corePatterns {
			if strings.Contains(lower, p) {
				core = append(core, ing)
				break
			}
		}
	}
	if len(core) == 0 {
		core = firstThree(ingredients)
	}
	return Categories{Core: core, Secondary: without(ingredients, core)}
}

func firstThree(items []string) []string {
	n := len(items)
	if n > 3 {
		n = 3
	}
	out := make([]string, n)
	copy(out, items[:n])
	return out
}

func without(items, remove []string) []string {
	drop := make(map[string]bool, len(remove))
	for _, r := range remove {
		drop[r] = true
	}
	out := []string{}
	for _, it := range items {
		if !drop[it] {
			out = append(out, it)
		}
	}
	return out
}

func cleanList(items []string) []string {
	out := []string{}
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}
