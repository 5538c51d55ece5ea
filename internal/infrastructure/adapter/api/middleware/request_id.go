package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request identifier in and out
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey stores the request identifier in the gin context
	RequestIDKey = "request_id"
)

// RequestID keeps the caller's X-Request-ID or assigns a new one, and echoes it back
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
