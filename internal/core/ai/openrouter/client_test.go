package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pantry-chef/internal/core/ai/provider"
	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.OpenRouterConfig{
		APIKey:    "or-key",
		BaseURL:   srv.URL,
		Model:     "test/model",
		MaxTokens: 256,
		Timeout:   5 * time.Second,
	})
}

func TestGenerate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer or-key", r.Header.Get("Authorization"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test/model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "Be brief.", req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`))
	})

	resp, err := c.Generate(context.Background(), &provider.Request{System: "Be brief.", Prompt: "hi", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, resp.Content)
	assert.Equal(t, "test/model", resp.Model)
	assert.Equal(t, 5, resp.Usage.TotalTokens)
}

func TestGenerateStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   *common.CustomError
	}{
		{http.StatusTooManyRequests, common.ErrLLMRateLimited},
		{http.StatusUnauthorized, common.ErrLLMUnavailable},
		{http.StatusBadGateway, common.ErrLLMFailed},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := c.Generate(context.Background(), &provider.Request{Prompt: "hi"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	_, err := c.Generate(context.Background(), &provider.Request{Prompt: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrLLMMalformed))
	assert.True(t, common.IsUseDefault(err))
}

func TestProviderMetadata(t *testing.T) {
	c := NewClient(config.OpenRouterConfig{Model: "m"})
	assert.Equal(t, "openrouter", c.Name())
	assert.Equal(t, "m", c.GetModel())
	assert.Equal(t, 60*time.Second, c.GetTimeout())
	assert.NoError(t, c.Close())

	var _ provider.Provider = c
}
