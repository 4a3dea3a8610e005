package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/managedproxy/internal/observability"
)

// Metrics returns a middleware that records request count and latency.
// The route label is the resolved context key, or "unmatched".
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.RecordRequest(c.Request.Method, routeOf(c), c.Writer.Status(), time.Since(start))
	}
}
