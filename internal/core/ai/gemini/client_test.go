package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"pantry-chef/internal/infrastructure/config"
	"pantry-chef/internal/pkg/common"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestFirstText(t *testing.T) {
	assert.Empty(t, firstText(nil))
	assert.Empty(t, firstText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("Try the curry!")}}},
		},
	}
	assert.Equal(t, "Try the curry!", firstText(resp))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want *common.CustomError
	}{
		{"googleapi 429", &googleapi.Error{Code: http.StatusTooManyRequests}, common.ErrLLMRateLimited},
		{"googleapi 403", &googleapi.Error{Code: http.StatusForbidden}, common.ErrLLMUnavailable},
		{"resource exhausted text", errors.New("rpc error: code = RESOURCE_EXHAUSTED"), common.ErrLLMRateLimited},
		{"other", errors.New("connection reset"), common.ErrLLMFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyError(tt.err)
			assert.True(t, errors.Is(got, tt.want))
		})
	}
	assert.True(t, common.IsRetryable(classifyError(&googleapi.Error{Code: http.StatusTooManyRequests})))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), config.GeminiConfig{APIKey: "  "})
	assert.Error(t, err)
}
