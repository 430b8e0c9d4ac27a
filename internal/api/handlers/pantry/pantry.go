package pantry

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"pantry-chef/internal/api/handlers"
	"pantry-chef/internal/core/store"
	"pantry-chef/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// Store 儲藏室、收藏與偏好的存取，*store.Store 即為實作
type Store interface {
	AddIngredient(ctx context.Context, name string) (bool, error)
	RemoveIngredient(ctx context.Context, name string) (bool, error)
	ListPantry(ctx context.Context) ([]string, error)
	ClearPantry(ctx context.Context) error

	AddFavorite(ctx context.Context, recipeID int64, title string, data json.RawMessage) (bool, error)
	RemoveFavorite(ctx context.Context, recipeID int64) (bool, error)
	IsFavorite(ctx context.Context, recipeID int64) (bool, error)
	ListFavorites(ctx context.Context) ([]store.Favorite, error)

	SaveSettings(ctx context.Context, p store.Preferences) error
	GetSettings(ctx context.Context) (store.Preferences, error)
}

// Handler 儲藏室、收藏與偏好處理程序
type Handler struct {
	store Store
}

// NewHandler 創建處理程序
func NewHandler(s Store) *Handler {
	return &Handler{store: s}
}

// AddIngredientsRequest 加入食材
type AddIngredientsRequest struct {
	Ingredients []string `json:"ingredients" binding:"required,min=1,max=100,dive,required,max=100"`
}

// AddFavoriteRequest 收藏食譜
type AddFavoriteRequest struct {
	RecipeID    int64           `json:"recipe_id" binding:"required,min=1"`
	RecipeTitle string          `json:"recipe_title" binding:"max=200"`
	RecipeData  json.RawMessage `json:"recipe_data"`
}

// SettingsRequest 更新偏好，省略的欄位保留原值
type SettingsRequest struct {
	UserProfile  string   `json:"user_profile" binding:"omitempty,profile"`
	Mood         string   `json:"mood" binding:"omitempty,mood"`
	Intolerances []string `json:"intolerances" binding:"max=20"`
}

// HandleListPantry 列出儲藏室
func (h *Handler) HandleListPantry(c *gin.Context) {
	items, err := h.store.ListPantry(c.Request.Context())
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": items, "count": len(items)})
}

// HandleAddIngredients 加入一或多個食材
func (h *Handler) HandleAddIngredients(c *gin.Context) {
	var req AddIngredientsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BindError(c, err)
		return
	}
	ctx := c.Request.Context()
	added := []string{}
	skipped := []string{}
	for _, name := range req.Ingredients {
		ok, err := h.store.AddIngredient(ctx, name)
		if err != nil {
			handlers.Fail(c, err)
			return
		}
		if ok {
			added = append(added, name)
		} else {
			skipped = append(skipped, name)
		}
	}
	items, err := h.store.ListPantry(ctx)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "skipped": skipped, "ingredients": items})
}

// HandleRemoveIngredient 移除食材
func (h *Handler) HandleRemoveIngredient(c *gin.Context) {
	removed, err := h.store.RemoveIngredient(c.Request.Context(), c.Param("name"))
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	if !removed {
		handlers.Fail(c, common.ErrNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleClearPantry 清空儲藏室
func (h *Handler) HandleClearPantry(c *gin.Context) {
	if err := h.store.ClearPantry(c.Request.Context()); err != nil {
		handlers.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleListFavorites 列出收藏
func (h *Handler) HandleListFavorites(c *gin.Context) {
	favs, err := h.store.ListFavorites(c.Request.Context())
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": favs, "count": len(favs)})
}

// HandleAddFavorite 收藏食譜，重複收藏回傳 200
func (h *Handler) HandleAddFavorite(c *gin.Context) {
	var req AddFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BindError(c, err)
		return
	}
	added, err := h.store.AddFavorite(c.Request.Context(), req.RecipeID, req.RecipeTitle, req.RecipeData)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"recipe_id": req.RecipeID, "added": added})
}

// HandleFavoriteStatus 查詢是否已收藏
func (h *Handler) HandleFavoriteStatus(c *gin.Context) {
	id, err := favoriteID(c)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	fav, err := h.store.IsFavorite(c.Request.Context(), id)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe_id": id, "is_favorite": fav})
}

// HandleRemoveFavorite 取消收藏
func (h *Handler) HandleRemoveFavorite(c *gin.Context) {
	id, err := favoriteID(c)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	removed, err := h.store.RemoveFavorite(c.Request.Context(), id)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	if !removed {
		handlers.Fail(c, common.ErrNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleGetSettings 讀取偏好
func (h *Handler) HandleGetSettings(c *gin.Context) {
	prefs, err := h.store.GetSettings(c.Request.Context())
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// HandleSaveSettings 更新偏好並回傳合併後的結果
func (h *Handler) HandleSaveSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BindError(c, err)
		return
	}
	ctx := c.Request.Context()
	if err := h.store.SaveSettings(ctx, store.Preferences(req)); err != nil {
		handlers.Fail(c, err)
		return
	}
	prefs, err := h.store.GetSettings(ctx)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func favoriteID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewValidationError("recipe id must be a positive integer")
	}
	return id, nil
}
