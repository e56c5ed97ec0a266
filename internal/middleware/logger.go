package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MQuirosP/backend-bancas-sub001/pkg/logger"
)

// Logger emits one structured line per request, escalating the log
// level with the response status.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := map[string]interface{}{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
		}
		if query := c.Request.URL.RawQuery; query != "" {
			fields["query"] = query
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		entry := logger.GetLogger().WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request processed")
		}
	}
}
