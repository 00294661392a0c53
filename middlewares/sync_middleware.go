package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// maxBatchBytes caps one flush request. Registers chunk their queues
// client side; anything bigger than this is a runaway client.
const maxBatchBytes = 1 << 20

// SyncRateLimiter throttles the sync endpoints with a shared token
// bucket. A register draining a day of offline sales arrives in bursts,
// so the bucket is deep but refills steadily.
func SyncRateLimiter() gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Every(time.Second), 20)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(429, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": "Too many sync requests, slow down and retry",
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// LimitBatchSize rejects oversized flushes before the JSON is parsed.
func LimitBatchSize() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBatchBytes {
			c.JSON(413, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "BATCH_TOO_LARGE",
					"message": "Batch exceeds the upload size limit, split it and retry",
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
