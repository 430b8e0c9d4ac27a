package middleware

import (
	"time"

	"pantry-chef/internal/infrastructure/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics 記錄請求數、延遲與進行中請求
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		done := m.RequestStarted()
		defer done()

		start := time.Now()
		c.Next()

		// 使用路由樣板避免 path 參數造成標籤爆量
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RecordRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
