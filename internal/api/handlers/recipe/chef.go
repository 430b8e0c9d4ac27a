package recipe

import (
	"net/http"
	"strconv"
	"strings"

	"pantry-chef/internal/api/handlers"
	"pantry-chef/internal/core/ai/assistant"
	"pantry-chef/internal/core/recipe"
	"pantry-chef/internal/core/spoonacular"
	"pantry-chef/internal/core/substitution"
	"pantry-chef/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AskChefRequest 詢問替代食材
type AskChefRequest struct {
	RecipeTitle string   `json:"recipe_title" binding:"max=200"`
	Query       string   `json:"query" binding:"required,max=500"`
	Ingredients []string `json:"ingredients" binding:"max=100"`
	RecipeID    int64    `json:"recipe_id" binding:"min=0"`
}

// AskChefResponse 替代建議
type AskChefResponse struct {
	Response       string   `json:"response"`
	Substitution   string   `json:"substitution"`
	ChefTip        string   `json:"chef_tip"`
	BestOption     string   `json:"best_option"`
	MissingItem    string   `json:"missing_item"`
	SimilarRecipes []string `json:"similar_recipes"`
}

// ValidateRequest 食譜複核條件
type ValidateRequest struct {
	DietaryRequirements []string `json:"dietary_requirements"`
	Diet                string   `json:"diet"`
	Intolerances        []string `json:"intolerances"`
	Cuisine             string   `json:"cuisine"`
	MealType            string   `json:"meal_type"`
}

// HandleAskChef 解析使用者缺少的食材並給出替代建議
func (h *Handler) HandleAskChef(c *gin.Context) {
	requestID := requestid.Get(c)

	var req AskChefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	pantry := nonBlank(req.Ingredients)
	if len(pantry) == 0 {
		pantry = h.savedPantry(ctx, requestID)
	}

	missing := substitution.ParseMissingItem(req.Query)
	help, err := h.helper.Help(ctx, substitution.Request{
		MissingItem: missing,
		RecipeTitle: req.RecipeTitle,
		RecipeID:    req.RecipeID,
		Pantry:      pantry,
	})
	if err != nil {
		handlers.Fail(c, err)
		return
	}

	advice := help.SmartRecommendation
	if advice == nil {
		if !h.chef.Available() && !help.HasAnswer() {
			common.LogWarn("主廚離線且無替代資料",
				zap.String("request_id", requestID),
				zap.String("missing_item", missing),
			)
			handlers.Fail(c, common.NewError(common.ErrCodeServiceUnavailable, "Chef is not available", http.StatusServiceUnavailable, nil))
			return
		}
		a := h.chef.Substitute(ctx, assistant.SubstitutionRequest{
			MissingItem:   help.MissingItem,
			RecipeTitle:   req.RecipeTitle,
			Pantry:        pantry,
			APISubstitute: help.APISubstitutes.Best(),
		})
		advice = &a
	}

	text := advice.Substitution
	if advice.ChefTip != "" {
		text += "\n\nChef's Tip: " + advice.ChefTip
	}
	c.JSON(http.StatusOK, AskChefResponse{
		Response:       text,
		Substitution:   advice.Substitution,
		ChefTip:        advice.ChefTip,
		BestOption:     help.BestOption,
		MissingItem:    help.MissingItem,
		SimilarRecipes: help.SimilarTitles(3),
	})
}

// HandleSubstitutes 查詢單一食材的替代品
func (h *Handler) HandleSubstitutes(c *gin.Context) {
	ingredient := strings.TrimSpace(c.Query("ingredient"))
	if ingredient == "" {
		handlers.Fail(c, common.NewValidationError("ingredient is required"))
		return
	}
	subs, err := h.api.Substitutes(c.Request.Context(), ingredient)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	if subs == nil {
		subs = &spoonacular.Substitutes{}
	}
	if subs.Substitutes == nil {
		subs.Substitutes = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"ingredient":  ingredient,
		"substitutes": subs.Substitutes,
		"message":     subs.Message,
		"best":        subs.Best(),
	})
}

// HandleRecipeInformation 取得單一食譜完整資料
func (h *Handler) HandleRecipeInformation(c *gin.Context) {
	id, err := recipeID(c)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	info, err := h.api.Information(c.Request.Context(), id)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// HandleSimilar 取得相似食譜
func (h *Handler) HandleSimilar(c *gin.Context) {
	id, err := recipeID(c)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	number := 5
	if raw := c.Query("number"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 20 {
			handlers.Fail(c, common.NewValidationError("number must be between 1 and 20"))
			return
		}
		number = n
	}
	similar, err := h.api.Similar(c.Request.Context(), id, number)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	if similar == nil {
		similar = []spoonacular.SimilarRecipe{}
	}
	c.JSON(http.StatusOK, gin.H{"recipe_id": id, "similar_recipes": similar})
}

// HandleValidate 以 LLM 複核單一食譜是否符合使用者的飲食限制
func (h *Handler) HandleValidate(c *gin.Context) {
	id, err := recipeID(c)
	if err != nil {
		handlers.Fail(c, err)
		return
	}
	var req ValidateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			handlers.BindError(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	info, err := h.api.Information(ctx, id)
	if err != nil {
		handlers.Fail(c, err)
		return
	}

	candidate := spoonacular.ToCandidate(*info, spoonacular.SourceAPI)
	diets := nonBlank(req.DietaryRequirements)
	if len(diets) == 0 && strings.TrimSpace(req.Diet) != "" {
		diets = []string{strings.TrimSpace(req.Diet)}
	}
	intolerances := nonBlank(req.Intolerances)
	if len(intolerances) == 0 {
		intolerances = nonBlank(h.savedPreferences(ctx, requestid.Get(c)).Intolerances)
	}
	settings := recipe.Settings{DietaryRequirements: diets, Intolerances: intolerances}

	validation := h.chef.ValidateRecipe(ctx, assistant.NewValidationRequest(&candidate, settings, req.Cuisine, req.MealType))
	c.JSON(http.StatusOK, gin.H{
		"recipe_id":  id,
		"title":      candidate.Title,
		"validation": validation,
	})
}
