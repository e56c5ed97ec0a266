package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MQuirosP/backend-bancas-sub001/pkg/logger"
	"github.com/MQuirosP/backend-bancas-sub001/pkg/response"
)

// Recovery converts panics into a 500 envelope instead of dropping the
// connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.GetLogger().WithFields(map[string]interface{}{
					"error":  err,
					"method": c.Request.Method,
					"path":   c.Request.URL.Path,
				}).Error("Panic recovered")
				response.InternalError(c, "Internal server error", "An unexpected error occurred")
				c.Abort()
			}
		}()
		c.Next()
	}
}

// ErrorHandler reports deferred gin errors that no handler turned into
// a response of its own.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()
		logger.GetLogger().WithError(err.Err).WithField("path", c.Request.URL.Path).Error("Request error")

		if !c.Writer.Written() && c.Writer.Status() < http.StatusBadRequest {
			response.InternalError(c, "Request failed", err.Error())
		}
	}
}
