package middleware

import (
	"time"

	"solana-portfolio-tracker/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware records every request in the collector. A request counts as
// successful when it finishes with a status below 400.
func MetricsMiddleware(metricsCollector *metrics.MetricsCollector) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		metricsCollector.RecordRequest()

		c.Next()

		metricsCollector.RecordRequestComplete(time.Since(startTime), c.Writer.Status() < 400)
	}
}
