package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fiwb/twin-gateway/internal/service"
)

// Metrics returns middleware that records request metrics on the provided
// service.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metrics.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
