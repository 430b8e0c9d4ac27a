package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pantry-chef/internal/core/ai/provider"
	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// Client OpenRouter API 客戶端
type Client struct {
	cfg    config.OpenRouterConfig
	client *resty.Client
}

// Message 消息結構
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat 回應格式
type ResponseFormat struct {
	Type string `json:"type"`
}

// Request 表示 API 請求
type Request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// Response OpenRouter 響應結構
type Response struct {
	ID      string    `json:"id"`
	Model   string    `json:"model"`
	Choices []Choice  `json:"choices"`
	Usage   UsageInfo `json:"usage"`
}

// Choice 選擇結構
type Choice struct {
	Message Message `json:"message"`
}

// UsageInfo 使用量信息
type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewClient 創建新的 OpenRouter 客戶端
func NewClient(cfg config.OpenRouterConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", "https://pantry-chef.local").
		SetHeader("X-Title", "PantryChef")

	return &Client{cfg: cfg, client: client}
}

// Name 提供者名稱
func (c *Client) Name() string { return "openrouter" }

// GetModel 模型名稱
func (c *Client) GetModel() string { return c.cfg.Model }

// GetTimeout 請求超時
func (c *Client) GetTimeout() time.Duration { return c.cfg.Timeout }

// Generate 生成回應
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	body := Request{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		body.MaxTokens = req.MaxTokens
	}
	if req.System != "" {
		body.Messages = append(body.Messages, Message{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, Message{Role: "user", Content: req.Prompt})
	if req.JSON {
		body.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	common.LogDebug("Sending request to OpenRouter",
		zap.String("model", body.Model),
		zap.Int("messages", len(body.Messages)),
		zap.Bool("json_mode", req.JSON),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return nil, common.Wrap(common.ErrLLMFailed, fmt.Errorf("failed to send request to OpenRouter: %w", err))
	}

	if err := statusError(resp.StatusCode(), resp.String()); err != nil {
		common.LogError("AI service returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("model", body.Model),
		)
		return nil, err
	}

	// 解析回應
	var result Response
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, common.Wrap(common.ErrLLMMalformed, fmt.Errorf("failed to parse OpenRouter response: %w", err))
	}
	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return nil, common.Wrap(common.ErrLLMMalformed, fmt.Errorf("empty choices in OpenRouter response: %s", truncate(resp.String(), 200)))
	}

	out := &provider.Response{
		Content: result.Choices[0].Message.Content,
		Model:   result.Model,
		Usage: provider.Usage{
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
		},
	}
	if out.Model == "" {
		out.Model = body.Model
	}
	return out, nil
}

// statusError 429 可重試，其餘錯誤改用預設值
func statusError(status int, body string) error {
	if status == http.StatusOK {
		return nil
	}
	cause := fmt.Errorf("OpenRouter API returned %d: %s", status, truncate(body, 200))
	switch status {
	case http.StatusTooManyRequests:
		return common.Wrap(common.ErrLLMRateLimited, cause)
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusPaymentRequired:
		return common.Wrap(common.ErrLLMUnavailable, cause)
	default:
		return common.Wrap(common.ErrLLMFailed, cause)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}
