package assistant

import (
	"context"
	"encoding/json"
	"strings"
)

// Generator LLM 文字產生能力，*service.Service 即為實作
type Generator interface {
	Available() bool
	GenerateText(ctx context.Context, prompt, system string) (string, error)
	GenerateJSON(ctx context.Context, prompt, system string, out interface{}) error
}

// Assistant 封裝 PantryChef 的各種 LLM 任務，LLM 不可用時一律回傳離線預設值
type Assistant struct {
	llm Generator
}

// New 創建助理，llm 可為 nil
func New(llm Generator) *Assistant {
	return &Assistant{llm: llm}
}

// Available LLM 是否可用
func (a *Assistant) Available() bool {
	return a != nil && a.llm != nil && a.llm.Available()
}

// wireIngredient extendedIngredients 中提示詞需要的欄位
type wireIngredient struct {
	Name     string `json:"name"`
	Original string `json:"original"`
}

// ingredientNames 從原始 extendedIngredients 取出前 n 個材料名稱
func ingredientNames(raw json.RawMessage, n int) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []wireIngredient
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			name = strings.TrimSpace(it.Original)
		}
		if name == "" {
			continue
		}
		names = append(names, name)
		if n > 0 && len(names) == n {
			break
		}
	}
	return names
}

func titleOr(title string) string {
	if strings.TrimSpace(title) == "" {
		return "a great recipe"
	}
	return title
}
