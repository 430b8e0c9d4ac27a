package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Spoonacular SpoonacularConfig `mapstructure:"spoonacular"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Gemini      GeminiConfig      `mapstructure:"gemini"`
	OpenRouter  OpenRouterConfig  `mapstructure:"openrouter"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Store       StoreConfig       `mapstructure:"store"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Pipeline    PipelineConfig    `mapstructure:"pipeline"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	DedupWindow time.Duration     `mapstructure:"dedup_window"`
	LogLevel    string            `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// SpoonacularConfig 食譜 API 設定
type SpoonacularConfig struct {
	APIKey             string        `mapstructure:"api_key"`
	BaseURL            string        `mapstructure:"base_url"`
	Timeout            time.Duration `mapstructure:"timeout"`
	QuotaWarnThreshold float64       `mapstructure:"quota_warn_threshold"`
	MaxBulk            int           `mapstructure:"max_bulk"`
}

// LLMConfig LLM 共用設定
type LLMConfig struct {
	Provider          string        `mapstructure:"provider"` // gemini | openrouter | none
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	CacheResponses    bool          `mapstructure:"cache_responses"`
	Workers           int           `mapstructure:"workers"`
	QueueSize         int           `mapstructure:"queue_size"`
}

// GeminiConfig Gemini 設定
type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"` // memory | redis
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// StoreConfig 本機資料庫設定，Path 為空時使用記憶體資料庫
type StoreConfig struct {
	Path     string `mapstructure:"path"`
	LogLevel string `mapstructure:"log_level"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// PipelineConfig 推薦流程參數
type PipelineConfig struct {
	MinResults         int     `mapstructure:"min_results"`
	RelaxedMinResults  int     `mapstructure:"relaxed_min_results"`
	SacrificeThreshold int     `mapstructure:"sacrifice_threshold"`
	TopPriorityCount   int     `mapstructure:"top_priority_count"`
	PitchTopN          int     `mapstructure:"pitch_top_n"`
	SafetyFloor        float64 `mapstructure:"safety_floor"`
	DefaultNumber      int     `mapstructure:"default_number"`
	MaxNumber          int     `mapstructure:"max_number"`
	DefaultMaxTime     int     `mapstructure:"default_max_time"`
	DefaultMaxMissing  int     `mapstructure:"default_max_missing"`
	DefaultSkillLevel  int     `mapstructure:"default_skill_level"`
}

// MetricsConfig 監控設定
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件，不存在時直接使用環境變數
	_ = godotenv.Load()

	v := viper.New()

	// 設定預設值
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindings := map[string]string{
		"spoonacular.api_key":   "SPOONACULAR_API_KEY",
		"llm.provider":          "LLM_PROVIDER",
		"gemini.api_key":        "GEMINI_API_KEY",
		"gemini.model":          "GEMINI_MODEL",
		"openrouter.api_key":    "OPENROUTER_API_KEY",
		"openrouter.model":      "OPENROUTER_MODEL",
		"openrouter.max_tokens": "MODEL_MAX_TOKENS",
		"cache.enabled":         "CACHE_ENABLED",
		"cache.backend":         "CACHE_BACKEND",
		"cache.redis_addr":      "REDIS_ADDR",
		"cache.redis_password":  "REDIS_PASSWORD",
		"store.path":            "PANTRY_DB_PATH",
		"rate_limit.enabled":    "RATE_LIMIT_ENABLED",
		"rate_limit.requests":   "RATE_LIMIT_REQUESTS",
		"rate_limit.window":     "RATE_LIMIT_WINDOW",
		"dedup_window":          "DEDUP_WINDOW",
		"log_level":             "LOG_LEVEL",
		"server.port":           "PORT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	// 設定設定檔名稱和路徑
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// 讀取設定檔
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 添加調試日誌（logger 尚未初始化，改用 fmt.Println）
	fmt.Println("Loading configuration",
		"llm_provider:", v.GetString("llm.provider"),
		"spoonacular_api_key:", maskAPIKey(v.GetString("spoonacular.api_key")),
		"gemini_api_key:", maskAPIKey(v.GetString("gemini.api_key")),
		"openrouter_api_key:", maskAPIKey(v.GetString("openrouter.api_key")),
	)

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.LLM.Provider = strings.ToLower(strings.TrimSpace(config.LLM.Provider))
	config.Cache.Backend = strings.ToLower(strings.TrimSpace(config.Cache.Backend))

	// 驗證必要設定
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if key == "" {
		return "(unset)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "pantry-chef")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "150s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 1<<20) // 1MB

	// 食譜 API 設定
	v.SetDefault("spoonacular.base_url", "https://api.spoonacular.com")
	v.SetDefault("spoonacular.timeout", "15s")
	v.SetDefault("spoonacular.quota_warn_threshold", 20)
	v.SetDefault("spoonacular.max_bulk", 100)

	// LLM 設定
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_backoff", "10s")
	v.SetDefault("llm.requests_per_minute", 15)
	v.SetDefault("llm.cache_responses", true)
	v.SetDefault("llm.workers", 4)
	v.SetDefault("llm.queue_size", 100)

	// Gemini 設定
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("gemini.timeout", "60s")

	// OpenRouter 設定
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "google/gemini-2.0-flash-001")
	v.SetDefault("openrouter.max_tokens", 1000)
	v.SetDefault("openrouter.timeout", "60s")

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 本機資料庫
	v.SetDefault("store.path", "pantry_chef.db")
	v.SetDefault("store.log_level", "warn")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// 推薦流程
	v.SetDefault("pipeline.min_results", 3)
	v.SetDefault("pipeline.relaxed_min_results", 5)
	v.SetDefault("pipeline.sacrifice_threshold", 5)
	v.SetDefault("pipeline.top_priority_count", 3)
	v.SetDefault("pipeline.pitch_top_n", 3)
	v.SetDefault("pipeline.safety_floor", 0.5)
	v.SetDefault("pipeline.default_number", 20)
	v.SetDefault("pipeline.max_number", 100)
	v.SetDefault("pipeline.default_max_time", 120)
	v.SetDefault("pipeline.default_max_missing", 10)
	v.SetDefault("pipeline.default_skill_level", 50)

	// 監控
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// Validate 驗證設定，缺少金鑰屬於啟動時的致命錯誤
func (c *Config) Validate() error {
	// 驗證伺服器設定
	if c.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	if c.Spoonacular.APIKey == "" {
		return fmt.Errorf("SPOONACULAR_API_KEY is required")
	}

	switch c.LLM.Provider {
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when llm.provider is gemini")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required when llm.provider is openrouter")
		}
	case "none", "":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("invalid llm max retries")
	}
	if c.LLMEnabled() && (c.LLM.Workers <= 0 || c.LLM.QueueSize <= 0) {
		return fmt.Errorf("invalid llm queue settings")
	}

	// 驗證快取設定
	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case "memory":
			if c.Cache.MaxSize <= 0 {
				return fmt.Errorf("invalid cache max size")
			}
			if c.Cache.CleanupInterval <= 0 {
				return fmt.Errorf("invalid cache cleanup interval")
			}
		case "redis":
			if c.Cache.RedisAddr == "" {
				return fmt.Errorf("cache.redis_addr is required for redis backend")
			}
		default:
			return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
		}
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit settings")
	}

	p := c.Pipeline
	if p.MinResults <= 0 || p.TopPriorityCount <= 0 || p.PitchTopN <= 0 {
		return fmt.Errorf("invalid pipeline settings")
	}
	if p.SafetyFloor < 0 || p.SafetyFloor > 1 {
		return fmt.Errorf("pipeline.safety_floor must be within [0,1]")
	}

	return nil
}

// LLMEnabled 是否設定了 LLM 服務
func (c *Config) LLMEnabled() bool {
	return c.LLM.Provider != "" && c.LLM.Provider != "none"
}
