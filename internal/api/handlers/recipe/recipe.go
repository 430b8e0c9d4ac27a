package recipe

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pantry-chef/internal/api/handlers"
	"pantry-chef/internal/core/recipe"
	"pantry-chef/internal/core/recommend"
	"pantry-chef/internal/core/store"
	"pantry-chef/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const noRecipesMessage = "No recipes found for those ingredients."

// RecommendRequest 推薦請求
type RecommendRequest struct {
	Ingredients             []string           `json:"ingredients" binding:"max=50,dive,max=100"`
	Mood                    string             `json:"mood" binding:"omitempty,mood"`
	UserProfile             string             `json:"user_profile" binding:"omitempty,profile"`
	Intolerances            []string           `json:"intolerances" binding:"max=20"`
	MaxTimeMinutes          int                `json:"max_time_minutes" binding:"omitempty,min=1,max=1440"`
	MaxMissingIngredients   *int               `json:"max_missing_ingredients" binding:"omitempty,min=0,max=50"`
	DietaryRequirements     []string           `json:"dietary_requirements"`
	Number                  int                `json:"number" binding:"omitempty,min=1,max=100"`
	Cuisine                 string             `json:"cuisine"`
	MealType                string             `json:"meal_type"`
	Diet                    string             `json:"diet"`
	MaxDifficulty           string             `json:"max_difficulty" binding:"omitempty,difficulty"`
	SkillLevel              *int               `json:"skill_level" binding:"omitempty,min=0,max=100"`
	NutritionalRequirements map[string]float64 `json:"nutritional_requirements"`
	UsePantry               bool               `json:"use_pantry"`
	SkipPitch               bool               `json:"skip_pitch"`
}

// RecommendResponse 推薦響應，沒有結果時附上提示訊息
type RecommendResponse struct {
	recommend.Response
	Message string `json:"message,omitempty"`
}

// HandleRecommend 依食材與偏好推薦食譜
func (h *Handler) HandleRecommend(c *gin.Context) {
	requestID := requestid.Get(c)

	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效", zap.Error(err), zap.String("request_id", requestID))
		handlers.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	saved := h.savedPreferences(ctx, requestID)

	ingredients := req.Ingredients
	if req.UsePantry || len(nonBlank(ingredients)) == 0 {
		ingredients = mergeUnique(ingredients, h.savedPantry(ctx, requestID))
	}

	settings := h.settings(req, saved)
	common.LogInfo("開始處理推薦請求",
		zap.String("request_id", requestID),
		zap.Int("ingredients", len(ingredients)),
		zap.String("mood", settings.Mood),
		zap.String("profile", settings.Profile),
	)

	resp, err := h.recommender.Recommend(ctx, recommend.Request{
		RequestID:    requestID,
		Ingredients:  ingredients,
		Settings:     settings,
		Number:       req.Number,
		Cuisine:      req.Cuisine,
		MealType:     req.MealType,
		Diet:         req.Diet,
		Intolerances: settings.Intolerances,
		SkipPitch:    req.SkipPitch,
	})
	if err != nil && !errors.Is(err, common.ErrNoRecipes) {
		handlers.Fail(c, err)
		return
	}

	out := RecommendResponse{}
	if resp != nil {
		out.Response = *resp
	}
	if out.Recipes == nil {
		out.Recipes = []recipe.Result{}
	}
	if len(out.Recipes) == 0 {
		out.Message = noRecipesMessage
	}
	c.JSON(http.StatusOK, out)
}

// settings 組合請求與已儲存偏好，請求值優先
func (h *Handler) settings(req RecommendRequest, saved store.Preferences) recipe.Settings {
	s := recipe.Settings{
		Profile:                 req.UserProfile,
		Mood:                    req.Mood,
		MaxDifficulty:           recipe.Difficulty(req.MaxDifficulty),
		MaxTimeMinutes:          req.MaxTimeMinutes,
		DietaryRequirements:     req.DietaryRequirements,
		Intolerances:            nonBlank(req.Intolerances),
		NutritionalRequirements: req.NutritionalRequirements,
		MaxMissing:              h.pipeline.DefaultMaxMissing,
		SkillLevel:              h.pipeline.DefaultSkillLevel,
	}
	if s.Profile == "" {
		s.Profile = saved.UserProfile
	}
	if s.Mood == "" {
		s.Mood = saved.Mood
	}
	if len(s.Intolerances) == 0 {
		s.Intolerances = nonBlank(saved.Intolerances)
	}
	if s.MaxTimeMinutes == 0 {
		s.MaxTimeMinutes = h.pipeline.DefaultMaxTime
	}
	if req.MaxMissingIngredients != nil {
		s.MaxMissing = *req.MaxMissingIngredients
	}
	if req.SkillLevel != nil {
		s.SkillLevel = *req.SkillLevel
	}
	return s.WithDefaults()
}

func (h *Handler) savedPreferences(ctx context.Context, requestID string) store.Preferences {
	if h.saved == nil {
		return store.Preferences{}
	}
	prefs, err := h.saved.GetSettings(ctx)
	if err != nil {
		common.LogWarn("讀取已儲存偏好失敗", zap.Error(err), zap.String("request_id", requestID))
		return store.Preferences{}
	}
	return prefs
}

func (h *Handler) savedPantry(ctx context.Context, requestID string) []string {
	if h.saved == nil {
		return nil
	}
	items, err := h.saved.ListPantry(ctx)
	if err != nil {
		common.LogWarn("讀取儲藏室失敗", zap.Error(err), zap.String("request_id", requestID))
		return nil
	}
	return items
}

func nonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := strings.TrimSpace(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// mergeUnique 合併兩份清單，忽略大小寫去重並保留先後順序
func mergeUnique(a, b []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, it := range nonBlank(list) {
			key := strings.ToLower(it)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, it)
		}
	}
	return out
}
