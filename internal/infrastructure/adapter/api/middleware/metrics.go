package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPMetrics records one observation per served request
type HTTPMetrics interface {
	ObserveHTTPRequest(method, route string, status int, elapsed time.Duration)
}

// Metrics observes every request under its route template so that path
// parameters do not explode label cardinality. Unmatched paths share one label.
func Metrics(metrics HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
