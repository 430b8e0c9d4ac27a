package api

import (
	"net/http"
	"time"

	"pantry-chef/internal/api/handlers"
	"pantry-chef/internal/api/handlers/health"
	"pantry-chef/internal/api/handlers/pantry"
	recipeHandler "pantry-chef/internal/api/handlers/recipe"
	"pantry-chef/internal/api/middleware"
	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/infrastructure/metrics"
	"pantry-chef/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies 路由需要的服務，Store 為 nil 時不註冊儲藏室相關路由
type Dependencies struct {
	Recommender recipeHandler.Recommender
	RecipeAPI   recipeHandler.RecipeAPI
	Chef        recipeHandler.Chef
	Store       pantry.Store
	Health      health.Components
	Metrics     *metrics.Metrics
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(common.GenerateUUID)))
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics(deps.Metrics))

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	router.Use(middleware.ErrorHandler(cfg.App.Debug))

	// 健康檢查路由
	healthHandler := health.NewHandler(deps.Health, cfg.App.Version)
	router.GET("/", healthHandler.Root)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	if cfg.Metrics.Enabled && cfg.Metrics.Path != "" && deps.Metrics != nil {
		router.GET(cfg.Metrics.Path, gin.WrapH(deps.Metrics.Handler()))
	}

	var saved recipeHandler.SavedState
	if deps.Store != nil {
		saved = deps.Store
	}
	recipes := recipeHandler.NewHandler(deps.Recommender, deps.RecipeAPI, deps.Chef, saved, cfg.Pipeline)
	dedup := middleware.Deduplication(cfg.DedupWindow)

	// 舊版路徑
	router.POST("/recommend", dedup, recipes.HandleRecommend)

	// API 路由組
	api := router.Group("/api/v1")
	{
		api.POST("/recommend", dedup, recipes.HandleRecommend)
		api.POST("/ask-chef", dedup, recipes.HandleAskChef)
		api.GET("/substitutes", recipes.HandleSubstitutes)

		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.GET("/:id", recipes.HandleRecipeInformation)
			recipeGroup.GET("/:id/similar", recipes.HandleSimilar)
			recipeGroup.POST("/:id/validate", recipes.HandleValidate)
		}

		if deps.Store != nil {
			pantryHandler := pantry.NewHandler(deps.Store)

			pantryGroup := api.Group("/pantry")
			{
				pantryGroup.GET("", pantryHandler.HandleListPantry)
				pantryGroup.POST("", pantryHandler.HandleAddIngredients)
				pantryGroup.DELETE("", pantryHandler.HandleClearPantry)
				pantryGroup.DELETE("/:name", pantryHandler.HandleRemoveIngredient)
			}

			favoriteGroup := api.Group("/favorites")
			{
				favoriteGroup.GET("", pantryHandler.HandleListFavorites)
				favoriteGroup.POST("", pantryHandler.HandleAddFavorite)
				favoriteGroup.GET("/:id", pantryHandler.HandleFavoriteStatus)
				favoriteGroup.DELETE("/:id", pantryHandler.HandleRemoveFavorite)
			}

			api.GET("/settings", pantryHandler.HandleGetSettings)
			api.PUT("/settings", pantryHandler.HandleSaveSettings)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, common.ErrorResponse{
			Error: common.ErrNotFound.Message,
			Code:  common.ErrCodeNotFound,
		})
	})

	common.LogInfo("Router setup completed successfully",
		zap.Bool("store_enabled", deps.Store != nil),
		zap.Bool("metrics_enabled", cfg.Metrics.Enabled),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router, nil
}
