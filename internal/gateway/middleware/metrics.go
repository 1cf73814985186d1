package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/chatrelay/internal/observability"
)

// Metrics returns a middleware that records request count, latency,
// response size and in-flight requests. Routes are labelled by their
// pattern so unknown paths do not grow the label set.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.IncActiveRequests()
		defer m.DecActiveRequests()

		c.Next()

		m.RecordRequest(c.Request.Method, routeOf(c), c.Writer.Status(), time.Since(start), c.Writer.Size())
	}
}
