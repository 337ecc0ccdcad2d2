package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDKey is the context key for the request ID
	RequestIDKey = "request_id"
	// RequestIDHeader is the HTTP header name for the request ID
	RequestIDHeader = "X-Request-ID"

	// ActorKey is the context key for the name of the operator making the request
	ActorKey = "actor"
	// ActorHeader carries the operator name set by the authenticating proxy
	ActorHeader = "X-User-Name"
)

// RequestID generates a unique request ID for each request and adds it to the context and response headers.
// An ID passed in by an upstream proxy is kept.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)

		c.Next()
	}
}

// GetRequestID retrieves the request ID from the Gin context.
// Returns an empty string if not found.
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// RequireActor rejects requests that do not name the operator.
// Every write is stamped with the actor as LastChangedBy.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(ActorHeader))
		if actor == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":       "UNAUTHORIZED",
					"message":    ActorHeader + " header is required",
					"request_id": GetRequestID(c),
				},
			})
			return
		}

		c.Set(ActorKey, actor)
		if log := GetLogger(c); log != nil {
			c.Set(loggerKey, log.With(map[string]interface{}{"actor": actor}))
		}

		c.Next()
	}
}

// GetActor retrieves the operator name set by RequireActor.
func GetActor(c *gin.Context) string {
	return c.GetString(ActorKey)
}
