package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"pantry-chef/internal/core/spoonacular"
	"pantry-chef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger 可檢查連線的元件
type Pinger interface {
	Ping(ctx context.Context) error
}

// LLMStatus LLM 服務狀態
type LLMStatus interface {
	Available() bool
	Stats() map[string]interface{}
}

// APIStatus 食譜 API 使用量
type APIStatus interface {
	Stats() spoonacular.Stats
}

// CacheStatus 快取狀態
type CacheStatus interface {
	Stats() map[string]interface{}
}

// Components 健康檢查涵蓋的元件，皆可為 nil
type Components struct {
	Store Pinger
	LLM   LLMStatus
	API   APIStatus
	Cache CacheStatus
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Version    string                 `json:"version"`
	Uptime     string                 `json:"uptime"`
	Components map[string]interface{} `json:"components"`
	Runtime    map[string]interface{} `json:"runtime"`
}

// Handler 健康檢查處理程序
type Handler struct {
	components Components
	version    string
	started    time.Time
}

// NewHandler 創建健康檢查處理程序
func NewHandler(components Components, version string) *Handler {
	return &Handler{components: components, version: version, started: time.Now()}
}

// Root 服務狀態橫幅
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "PantryChef is online",
		"health":  "/health",
		"version": h.version,
	})
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	status := "healthy"
	components := map[string]interface{}{}

	if h.components.Store != nil {
		if err := h.components.Store.Ping(c.Request.Context()); err != nil {
			common.LogError("資料庫連線檢查失敗", zap.Error(err))
			status = "degraded"
			components["store"] = gin.H{"status": "down", "error": err.Error()}
		} else {
			components["store"] = gin.H{"status": "up"}
		}
	} else {
		components["store"] = gin.H{"status": "not configured"}
	}

	if h.components.LLM != nil && h.components.LLM.Available() {
		components["llm"] = h.components.LLM.Stats()
	} else {
		components["llm"] = gin.H{"available": false}
	}

	if h.components.API != nil {
		components["recipe_api"] = h.components.API.Stats()
	}
	if h.components.Cache != nil {
		components["cache"] = h.components.Cache.Stats()
	} else {
		components["cache"] = gin.H{"enabled": false}
	}

	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Version:    h.version,
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Components: components,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("status", status),
	)

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, response)
}

// ReadinessCheck 就緒檢查處理器，資料庫無法連線時回傳 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.components.Store != nil {
		if err := h.components.Store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "reason": "store unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
