package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// HeaderRequestID carries the request correlation id between services.
	HeaderRequestID = "X-Request-ID"
	// HeaderUserID carries the authenticated user id set by the gateway.
	HeaderUserID = "X-User-ID"
)

type contextKey string

// RequestIDKey is the context key under which the request id is stored.
const RequestIDKey contextKey = "request_id"

// RequestID assigns a correlation id to every request, reusing one supplied
// by the gateway when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.Set(string(RequestIDKey), requestID)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), RequestIDKey, requestID))
		c.Header(HeaderRequestID, requestID)
		c.Next()
	}
}

// RequestIDFromContext extracts the request id from a gin context, empty if unset.
func RequestIDFromContext(c *gin.Context) string {
	if v, ok := c.Get(string(RequestIDKey)); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
