package spoonacular

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"pantry-chef/internal/core/cache"
	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/infrastructure/metrics"
	"pantry-chef/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const serviceName = "spoonacular"

// Client Spoonacular API 客戶端
type Client struct {
	cfg     config.SpoonacularConfig
	http    *resty.Client
	cache   cache.Store
	metrics *metrics.Metrics

	calls int64

	mu         sync.Mutex
	quotaUsed  float64
	quotaLeft  float64
	quotaKnown bool
}

// Option 客戶端選項
type Option func(*Client)

// WithCache 快取搜尋回應
func WithCache(store cache.Store) Option {
	return func(c *Client) { c.cache = store }
}

// WithMetrics 記錄呼叫指標
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient 創建 Spoonacular 客戶端
func NewClient(cfg config.SpoonacularConfig, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.spoonacular.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxBulk <= 0 {
		cfg.MaxBulk = 100
	}

	c := &Client{
		cfg: cfg,
		http: resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetTimeout(cfg.Timeout).
			SetHeader("Accept", "application/json"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stats 取得呼叫次數與配額
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Calls:      atomic.LoadInt64(&c.calls),
		QuotaUsed:  c.quotaUsed,
		QuotaLeft:  c.quotaLeft,
		QuotaKnown: c.quotaKnown,
	}
}

// get 發送 GET 請求並解碼，params 不含 apiKey
func (c *Client) get(ctx context.Context, endpoint string, params map[string]string, out interface{}) error {
	key := cache.Key(serviceName, signature(endpoint, params)...)
	if c.cache != nil {
		if raw, err := c.cache.Get(ctx, key); err == nil {
			c.metrics.CacheOp(serviceName, "hit")
			if err := json.Unmarshal([]byte(raw), out); err == nil {
				return nil
			}
		} else {
			c.metrics.CacheOp(serviceName, "miss")
		}
	}

	atomic.AddInt64(&c.calls, 1)
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam("apiKey", c.cfg.APIKey).
		Get("/" + strings.TrimLeft(endpoint, "/"))
	if err != nil {
		c.metrics.UpstreamCall(serviceName, "error")
		common.LogUpstreamCall(endpoint, 0, 0)
		return common.Wrap(common.ErrUpstreamUnavailable, fmt.Errorf("request %s: %w", endpoint, err))
	}

	common.LogUpstreamCall(endpoint, resp.StatusCode(), resp.Time())
	c.trackQuota(resp.Header())

	if err := statusError(endpoint, resp.StatusCode(), resp.String()); err != nil {
		c.metrics.UpstreamCall(serviceName, "error")
		return err
	}
	c.metrics.UpstreamCall(serviceName, "ok")

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return common.Wrapf(common.ErrUpstreamUnavailable, "Recipe API returned malformed JSON", err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, string(resp.Body())); err != nil {
			common.LogWarn("食譜 API 快取寫入失敗", zap.String("endpoint", endpoint), zap.Error(err))
		}
	}
	return nil
}

// statusError 將 HTTP 狀態對應到錯誤類型
func statusError(endpoint string, status int, body string) error {
	if status >= 200 && status < 300 {
		return nil
	}
	if len(body) > 200 {
		body = body[:200]
	}
	cause := fmt.Errorf("%s returned %d: %s", endpoint, status, body)

	switch status {
	case http.StatusUnauthorized:
		return common.Wrap(common.ErrUpstreamUnauthorized, cause)
	case http.StatusPaymentRequired, http.StatusTooManyRequests:
		return common.Wrap(common.ErrUpstreamQuota, cause)
	default:
		return common.Wrapf(common.ErrUpstreamUnavailable, fmt.Sprintf("Recipe API error (status %d)", status), cause)
	}
}

// trackQuota 讀取配額 header，剩餘低於門檻時警告
func (c *Client) trackQuota(h http.Header) {
	used, okUsed := headerFloat(h, "X-API-Quota-Used")
	left, okLeft := headerFloat(h, "X-API-Quota-Left")
	if !okLeft {
		left, okLeft = headerFloat(h, "X-API-Quota-Leftover")
	}
	if !okUsed && !okLeft {
		return
	}

	c.mu.Lock()
	c.quotaKnown = true
	if okUsed {
		c.quotaUsed = used
	}
	if okLeft {
		c.quotaLeft = left
	}
	c.mu.Unlock()

	if okLeft && left < c.cfg.QuotaWarnThreshold {
		common.LogWarn("食譜 API 配額即將用盡",
			zap.Float64("remaining", left),
			zap.Float64("used", used),
			zap.String("limit", h.Get("X-API-Quota-Limit")),
		)
	}
}

func headerFloat(h http.Header, name string) (float64, bool) {
	v := strings.TrimSpace(h.Get(name))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// signature 以 endpoint 與排序後的參數組成快取簽章
func signature(endpoint string, params map[string]string) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	parts = append(parts, endpoint)
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return parts
}
