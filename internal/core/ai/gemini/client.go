package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pantry-chef/internal/core/ai/provider"
	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/pkg/common"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Client Gemini 客戶端
type Client struct {
	cfg    config.GeminiConfig
	client *genai.Client
}

// NewClient 建立 Gemini 客戶端
func NewClient(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &Client{cfg: cfg, client: cl}, nil
}

func (c *Client) Name() string              { return "gemini" }
func (c *Client) GetModel() string          { return c.cfg.Model }
func (c *Client) GetTimeout() time.Duration { return c.cfg.Timeout }
func (c *Client) Close() error              { return c.client.Close() }

// Generate 呼叫 GenerateContent，JSON 模式下要求 application/json
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	m := c.client.GenerativeModel(c.cfg.Model)
	if m == nil {
		return nil, common.Wrap(common.ErrLLMUnavailable, fmt.Errorf("gemini: model is nil"))
	}

	temp := c.cfg.Temperature
	if req.Temperature > 0 {
		temp = float32(req.Temperature)
	}
	m.GenerationConfig = genai.GenerationConfig{Temperature: ptrFloat32(temp)}
	if req.MaxTokens > 0 {
		m.GenerationConfig.MaxOutputTokens = ptrInt32(int32(req.MaxTokens))
	}
	if req.JSON {
		m.GenerationConfig.ResponseMIMEType = "application/json"
	}
	if req.System != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	resp, err := m.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, classifyError(err)
	}

	txt := firstText(resp)
	if strings.TrimSpace(txt) == "" {
		return nil, common.Wrap(common.ErrLLMMalformed, fmt.Errorf("gemini: empty response"))
	}

	out := &provider.Response{Content: txt, Model: c.cfg.Model}
	if resp.UsageMetadata != nil {
		out.Usage = provider.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

// classifyError 429 / RESOURCE_EXHAUSTED 視為可重試
func classifyError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusTooManyRequests:
			return common.Wrap(common.ErrLLMRateLimited, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return common.Wrap(common.ErrLLMUnavailable, err)
		}
	}

	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED") {
		return common.Wrap(common.ErrLLMRateLimited, err)
	}
	return common.Wrap(common.ErrLLMFailed, err)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
func ptrInt32(v int32) *int32       { return &v }
