package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"pantry-chef/internal/core/ai/gemini"
	"pantry-chef/internal/core/ai/openrouter"
	"pantry-chef/internal/core/ai/provider"
	"pantry-chef/internal/core/ai/queue"
	"pantry-chef/internal/core/cache"
	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/infrastructure/metrics"
	"pantry-chef/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Service AI 服務，包裝提供者並處理限流、重試與快取
type Service struct {
	provider provider.Provider
	cfg      config.LLMConfig
	cache    cache.Store
	limiter  *rate.Limiter
	queue    *queue.Manager
	metrics  *metrics.Metrics
	calls    int64
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option 服務選項
type Option func(*Service)

// WithCache 快取 LLM 回應
func WithCache(store cache.Store) Option {
	return func(s *Service) { s.cache = store }
}

// WithMetrics 記錄呼叫指標
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithQueue 透過隊列限制同時請求數
func WithQueue(q *queue.Manager) Option {
	return func(s *Service) { s.queue = q }
}

// NewService 創建 AI 服務，p 為 nil 時所有呼叫回傳 ErrLLMUnavailable
func NewService(p provider.Provider, cfg config.LLMConfig, opts ...Option) *Service {
	s := &Service{
		provider: p,
		cfg:      cfg,
		sleep:    sleepContext,
	}
	if cfg.RequestsPerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// New 依設定建立提供者與服務
func New(ctx context.Context, cfg *config.Config, store cache.Store, m *metrics.Metrics) (*Service, error) {
	var p provider.Provider
	switch cfg.LLM.Provider {
	case "gemini":
		g, err := gemini.NewClient(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		p = g
	case "openrouter":
		p = openrouter.NewClient(cfg.OpenRouter)
	default:
		common.LogWarn("LLM 未啟用，改用離線預設值", zap.String("provider", cfg.LLM.Provider))
		return NewService(nil, cfg.LLM, WithMetrics(m)), nil
	}

	opts := []Option{WithMetrics(m), WithQueue(queue.NewManager(cfg.LLM.Workers, cfg.LLM.QueueSize))}
	if cfg.LLM.CacheResponses && store != nil {
		opts = append(opts, WithCache(store))
	}

	common.LogInfo("LLM 服務已初始化",
		zap.String("provider", p.Name()),
		zap.String("model", p.GetModel()),
		zap.Int("max_retries", cfg.LLM.MaxRetries),
	)
	return NewService(p, cfg.LLM, opts...), nil
}

// Available 是否有可用的 LLM
func (s *Service) Available() bool {
	return s != nil && s.provider != nil
}

// Calls 累計請求次數
func (s *Service) Calls() int64 {
	if s == nil {
		return 0
	}
	return atomic.LoadInt64(&s.calls)
}

// GenerateText 產生純文字
func (s *Service) GenerateText(ctx context.Context, prompt, system string) (string, error) {
	resp, err := s.Generate(ctx, &provider.Request{Prompt: prompt, System: system})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// GenerateJSON 以 JSON 模式產生並解碼
func (s *Service) GenerateJSON(ctx context.Context, prompt, system string, out interface{}) error {
	resp, err := s.Generate(ctx, &provider.Request{Prompt: prompt, System: system, JSON: true})
	if err != nil {
		return err
	}
	if err := common.DecodeLLMObject(resp.Content, out); err != nil {
		return common.Wrap(common.ErrLLMMalformed, err)
	}
	return nil
}

// Generate 統一對外方法
func (s *Service) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if !s.Available() {
		return nil, common.ErrLLMUnavailable
	}

	key := s.cacheKey(req)
	if s.cache != nil {
		if val, err := s.cache.Get(ctx, key); err == nil && val != "" {
			s.metrics.CacheOp("llm", "hit")
			return &provider.Response{Content: val, Model: s.provider.GetModel(), CacheHit: true}, nil
		}
		s.metrics.CacheOp("llm", "miss")
	}

	resp, err := s.generateWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resp.Content); err != nil {
			common.LogWarn("LLM 快取寫入失敗", zap.Error(err))
		}
	}
	return resp, nil
}

// generateWithRetry 只有限流錯誤會重試，等待時間線性遞增
func (s *Service) generateWithRetry(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	attempts := s.cfg.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, common.Wrap(common.ErrLLMUnavailable, err)
			}
		}

		resp, err := s.call(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !common.IsRetryable(err) || attempt == attempts-1 {
			break
		}

		wait := time.Duration(attempt+1) * s.cfg.RetryBackoff
		common.LogWarn("LLM 限流，稍後重試",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", attempts),
			zap.Duration("wait", wait),
		)
		if err := s.sleep(ctx, wait); err != nil {
			return nil, common.Wrap(common.ErrLLMUnavailable, err)
		}
	}

	if errors.Is(lastErr, context.DeadlineExceeded) || errors.Is(lastErr, context.Canceled) {
		return nil, common.Wrap(common.ErrLLMUnavailable, lastErr)
	}
	return nil, lastErr
}

func (s *Service) call(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	atomic.AddInt64(&s.calls, 1)
	start := time.Now()

	job := func(ctx context.Context) (*provider.Response, error) {
		return s.provider.Generate(ctx, req)
	}

	var (
		resp *provider.Response
		err  error
	)
	if s.queue != nil {
		resp, err = s.queue.Submit(ctx, job)
	} else {
		resp, err = job(ctx)
	}

	common.LogLLMCall(s.provider.Name(), time.Since(start), err)
	if err != nil {
		s.metrics.UpstreamCall("llm", "error")
		return nil, err
	}
	s.metrics.UpstreamCall("llm", "ok")
	return resp, nil
}

// cacheKey 依提供者、模型與請求內容產生快取鍵
func (s *Service) cacheKey(req *provider.Request) string {
	return cache.Key("llm",
		s.provider.Name(),
		s.provider.GetModel(),
		req.System,
		strings.TrimSpace(req.Prompt),
		strconv.FormatBool(req.JSON),
		fmt.Sprintf("%d/%.2f", req.MaxTokens, req.Temperature),
	)
}

// Stats 服務狀態
func (s *Service) Stats() map[string]interface{} {
	if !s.Available() {
		return map[string]interface{}{"available": false}
	}
	stats := map[string]interface{}{
		"available": true,
		"provider":  s.provider.Name(),
		"model":     s.provider.GetModel(),
		"calls":     s.Calls(),
	}
	if s.queue != nil {
		stats["queue"] = s.queue.Status()
	}
	return stats
}

// Close 關閉提供者與隊列
func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	if s.queue != nil {
		s.queue.Close()
	}
	if s.provider != nil {
		return s.provider.Close()
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
