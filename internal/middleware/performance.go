package middleware

import (
	"net/http"
	"strconv"
	"time"

	"solana-portfolio-tracker/internal/models"
	"solana-portfolio-tracker/pkg/logger"
	"solana-portfolio-tracker/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PerformanceMiddleware stamps the response time on responses that have not been
// written yet and logs requests slower than threshold.
func PerformanceMiddleware(threshold time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		duration := time.Since(startTime)
		if !c.Writer.Written() {
			c.Header("X-Response-Time", duration.String())
			c.Header("X-Response-Time-Ms", strconv.FormatInt(duration.Milliseconds(), 10))
		}

		if threshold > 0 && duration > threshold {
			logger.GetLogger().WithContext(c.Request.Context()).Warn("Slow request",
				zap.String("path", c.Request.URL.Path),
				zap.Duration("duration", duration),
				zap.Duration("threshold", threshold),
			)
		}
	}
}

// RequestSizeMiddleware rejects request bodies larger than maxBytes
func RequestSizeMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			appErr := models.NewAppErrorWithDetails(
				models.ErrorCodeInvalidRequest,
				"Request body too large",
				"Limit is "+strconv.FormatInt(maxBytes, 10)+" bytes",
			)
			appErr.StatusCode = http.StatusRequestEntityTooLarge
			models.HandleError(c, appErr, logger.GetLogger().WithContext(c.Request.Context()))
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// ConcurrencyMiddleware reports the number of in-flight requests
func ConcurrencyMiddleware(metricsCollector *metrics.MetricsCollector) gin.HandlerFunc {
	return func(c *gin.Context) {
		activeRequests := metricsCollector.GetMetrics().ActiveRequests
		c.Header("X-Active-Requests", strconv.FormatInt(activeRequests, 10))

		c.Next()
	}
}
