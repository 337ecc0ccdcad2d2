package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stwalsh4118/hoadues/internal/logger"
)

// loggerKey is the context key of the request-scoped logger.
const loggerKey = "logger"

// Logger creates a middleware that logs HTTP requests using structured logging.
// Handlers get a child logger tagged with the request ID through GetLogger.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Set(loggerKey, log.WithRequestID(GetRequestID(c)))

		c.Next()

		// Handlers may have replaced the logger with a richer one
		requestLogger := GetLogger(c)
		status := c.Writer.Status()

		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}
		if c.Request.URL.RawQuery != "" {
			fields["query"] = c.Request.URL.RawQuery
		}
		if fields["path"] == "" {
			fields["path"] = c.Request.URL.Path
		}
		var lastErr error
		if last := c.Errors.Last(); last != nil {
			lastErr = last
			fields["errors"] = c.Errors.String()
		}

		switch {
		case status >= 500:
			requestLogger.Error("Request completed with server error", lastErr, fields)
		case status >= 400:
			requestLogger.Warn("Request completed with client error", fields)
		default:
			requestLogger.Info("Request completed", fields)
		}
	}
}

// GetLogger retrieves the logger from the Gin context.
// Returns nil if not found.
func GetLogger(c *gin.Context) *logger.Logger {
	if value, exists := c.Get(loggerKey); exists {
		if log, ok := value.(*logger.Logger); ok {
			return log
		}
	}
	return nil
}
