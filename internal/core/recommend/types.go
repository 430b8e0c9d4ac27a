package recommend

import (
	"context"

	"pantry-chef/internal/core/ai/assistant"
	"pantry-chef/internal/core/recipe"
	"pantry-chef/internal/core/spoonacular"
)

// RecipeSource 食譜搜尋來源，*spoonacular.Client 即為實作
type RecipeSource interface {
	SearchByIngredients(ctx context.Context, req spoonacular.SearchRequest) ([]recipe.Candidate, error)
	SearchByQuery(ctx context.Context, query string, req spoonacular.SearchRequest) ([]recipe.Candidate, error)
}

// Assistant 推薦流程用到的 LLM 任務，*assistant.Assistant 即為實作
type Assistant interface {
	Available() bool
	CategorizeIngredients(ctx context.Context, ingredients []string) assistant.Categories
	FindRecipes(ctx context.Context, req assistant.FindRequest) ([]recipe.Candidate, error)
	Pitch(ctx context.Context, results []recipe.Result, mood string) assistant.PitchResult
}

// Request 單次推薦請求
type Request struct {
	RequestID    string
	Ingredients  []string
	Settings     recipe.Settings
	Number       int
	Cuisine      string
	MealType     string
	Diet         string
	Intolerances []string // 交給上游過濾的過敏原
	SkipPitch    bool
}

// Response 推薦結果
type Response struct {
	Recipes  []recipe.Result `json:"recipes"`
	Pitch    *string         `json:"pitch"`
	Metadata Metadata        `json:"metadata"`
}

// Metadata 處理過程紀錄
type Metadata struct {
	TotalFetched   int                 `json:"total_fetched"`
	TotalProcessed int                 `json:"total_processed"`
	AIEnriched     bool                `json:"ai_enriched"`
	CuisineApplied *string             `json:"cuisine_applied"`
	FallbacksFired []string            `json:"fallbacks_fired"`
	Notes          []string            `json:"notes"`
	Errors         []string            `json:"errors"`
	SafetyRemoved  int                 `json:"safety_removed"`
	LLMRejected    []string            `json:"llm_rejected"`
	Process        recipe.ProcessStats `json:"process_stats"`
}

// 備援策略名稱，同時作為監控標籤
const (
	StrategySmartSacrifice   = "smart_sacrifice"
	StrategyCuisineBroadened = "cuisine_broadening"
	StrategyNoIntolerances   = "drop_intolerances"
	StrategyNoCuisine        = "drop_cuisine"
	StrategyTopIngredients   = "top_ingredients"
	StrategyLLMFabrication   = "llm_fabrication"
	StrategyCorePriority     = "core_reprioritization"
)

func newMetadata() Metadata {
	return Metadata{
		FallbacksFired: []string{},
		Notes:          []string{},
		Errors:         []string{},
		LLMRejected:    []string{},
	}
}
