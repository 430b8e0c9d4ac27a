package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pantry-chef/internal/api"
	"pantry-chef/internal/api/handlers/health"
	"pantry-chef/internal/core/ai/assistant"
	"pantry-chef/internal/core/ai/service"
	"pantry-chef/internal/core/cache"
	"pantry-chef/internal/core/recipe"
	"pantry-chef/internal/core/recommend"
	"pantry-chef/internal/core/spoonacular"
	"pantry-chef/internal/core/store"
	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/infrastructure/metrics"
	"pantry-chef/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	m := metrics.New()

	// 初始化快取，停用時為 nil
	cacheStore, err := cache.New(cfg)
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}
	if cacheStore != nil {
		defer cacheStore.Close()
	}

	// 本機資料庫
	db, err := store.Open(cfg.Store)
	if err != nil {
		common.LogFatal("Failed to open store", zap.Error(err))
	}
	defer db.Close()

	// LLM 服務，未設定時以離線模式運作
	ctx := context.Background()
	llm, err := service.New(ctx, cfg, cacheStore, m)
	if err != nil {
		common.LogFatal("Failed to initialize LLM service", zap.Error(err))
	}
	defer llm.Close()

	clientOpts := []spoonacular.Option{spoonacular.WithMetrics(m)}
	if cacheStore != nil {
		clientOpts = append(clientOpts, spoonacular.WithCache(cacheStore))
	}
	recipes := spoonacular.NewClient(cfg.Spoonacular, clientOpts...)
	chef := assistant.New(llm)
	orchestrator := recommend.New(recipes, chef, recipe.NewEngine(), cfg.Pipeline, m)

	deps := api.Dependencies{
		Recommender: orchestrator,
		RecipeAPI:   recipes,
		Chef:        chef,
		Store:       db,
		Health: health.Components{
			Store: db,
			LLM:   llm,
			API:   recipes,
		},
		Metrics: m,
	}
	if cacheStore != nil {
		deps.Health.Cache = cacheStore
	}

	// 設置路由
	router, err := api.SetupRouter(cfg, deps)
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Bool("llm_available", llm.Available()),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}
