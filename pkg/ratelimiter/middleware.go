package ratelimiter

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for rate limiting by client IP
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.burst))

		if !rl.IsAllowed(clientIP) {
			retryAfter := int(math.Ceil(rl.RetryAfter(clientIP).Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}

			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Too many requests. Rate limit exceeded.",
					"details": "Retry after " + strconv.Itoa(retryAfter) + " seconds.",
				},
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(rl.Remaining(clientIP)))
		c.Next()
	}
}
