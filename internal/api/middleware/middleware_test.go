package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pantry-chef/internal/infrastructure/metrics"
	"pantry-chef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Now()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(31 * time.Second)
	assert.True(t, rl.Allow("a"))
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(1, time.Minute))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/", "").Code)
	w := perform(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestDeduplicator(t *testing.T) {
	d := NewDeduplicator(time.Second)
	now := time.Now()
	d.now = func() time.Time { return now }

	assert.False(t, d.Seen("x"))
	assert.True(t, d.Seen("x"))
	now = now.Add(2 * time.Second)
	assert.False(t, d.Seen("x"))
}

func TestDeduplicationOnlyPost(t *testing.T) {
	r := gin.New()
	r.Use(Deduplication(time.Minute))
	handler := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.POST("/p", handler)
	r.GET("/g", handler)

	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/p", `{"a":1}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, perform(r, http.MethodPost, "/p", `{"a":1}`).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/p", `{"a":2}`).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/g", "").Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/g", "").Code)
}

func TestBodySizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodySizeLimit(4))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusRequestEntityTooLarge, perform(r, http.MethodPost, "/", `{"long":true}`).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodPost, "/", `{}`).Code)
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(false))
	r.GET("/custom", func(c *gin.Context) { _ = c.Error(common.Wrap(common.ErrUpstreamQuota, errors.New("402"))) })
	r.GET("/validation", func(c *gin.Context) { _ = c.Error(common.NewValidationError("bad id")) })
	r.GET("/bind", func(c *gin.Context) { _ = c.Error(errors.New("unexpected EOF")).SetType(gin.ErrorTypeBind) })
	r.GET("/plain", func(c *gin.Context) { _ = c.Error(errors.New("boom")) })
	r.GET("/written", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		_ = c.Error(errors.New("late"))
	})

	w := perform(r, http.MethodGet, "/custom", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "UPSTREAM_QUOTA")
	assert.NotContains(t, w.Body.String(), "402")

	w = perform(r, http.MethodGet, "/validation", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "bad id")

	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/bind", "").Code)

	w = perform(r, http.MethodGet, "/plain", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/written", "").Code)
}

func TestErrorStatusDebugDetails(t *testing.T) {
	status, body := ErrorStatus(common.Wrap(common.ErrLLMFailed, errors.New("quota")), true)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "quota", body.Details)

	status, _ = ErrorStatus(context.DeadlineExceeded, false)
	assert.Equal(t, http.StatusGatewayTimeout, status)
}

func TestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(Timeout(10 * time.Millisecond))
	r.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	r.GET("/fast", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusGatewayTimeout, perform(r, http.MethodGet, "/slow", "").Code)
	assert.Equal(t, http.StatusNoContent, perform(r, http.MethodGet, "/fast", "").Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(c *gin.Context) { panic("kaboom") })

	w := perform(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), common.ErrCodeInternalError)
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	perform(r, http.MethodGet, "/items/1", "")
	perform(r, http.MethodGet, "/items/2", "")

	count, err := testutil.GatherAndCount(m.Registry(), "http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
