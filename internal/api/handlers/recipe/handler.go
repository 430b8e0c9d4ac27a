package recipe

import (
	"context"
	"strconv"
	"strings"

	"pantry-chef/internal/core/ai/assistant"
	"pantry-chef/internal/core/recommend"
	"pantry-chef/internal/core/spoonacular"
	"pantry-chef/internal/core/store"
	"pantry-chef/internal/core/substitution"
	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// Recommender 推薦流程
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
}

// RecipeAPI 單一食譜查詢，*spoonacular.Client 即為實作
type RecipeAPI interface {
	Information(ctx context.Context, id int64) (*spoonacular.Recipe, error)
	Similar(ctx context.Context, id int64, number int) ([]spoonacular.SimilarRecipe, error)
	Substitutes(ctx context.Context, ingredient string) (*spoonacular.Substitutes, error)
}

// Chef LLM 替代建議與食譜複核，*assistant.Assistant 即為實作
type Chef interface {
	Available() bool
	Substitute(ctx context.Context, req assistant.SubstitutionRequest) assistant.Advice
	ValidateRecipe(ctx context.Context, req assistant.ValidationRequest) assistant.Validation
}

// SavedState 已儲存的偏好與儲藏室
type SavedState interface {
	GetSettings(ctx context.Context) (store.Preferences, error)
	ListPantry(ctx context.Context) ([]string, error)
}

// Handler 食譜處理程序
type Handler struct {
	recommender Recommender
	api         RecipeAPI
	chef        Chef
	saved       SavedState
	helper      *substitution.Helper
	pipeline    config.PipelineConfig
}

// NewHandler 創建新的食譜處理程序，saved 可為 nil
func NewHandler(recommender Recommender, api RecipeAPI, chef Chef, saved SavedState, pipeline config.PipelineConfig) *Handler {
	return &Handler{
		recommender: recommender,
		api:         api,
		chef:        chef,
		saved:       saved,
		helper:      substitution.NewHelper(api, chef),
		pipeline:    pipeline,
	}
}

// recipeID 解析路徑上的食譜 ID
func recipeID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewValidationError("recipe id must be a positive integer")
	}
	return id, nil
}
