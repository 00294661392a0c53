package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/lunchline/pos-server/utils"
)

// SyncLoggerMiddleware brackets every batch flush with a before and an
// after line, keyed to the request size.
func SyncLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.InfoLogger.Printf("Sync flush started: %s (%d bytes)", c.Request.URL.Path, c.Request.ContentLength)

		c.Next()

		if c.Writer.Status() == 200 {
			utils.InfoLogger.Printf("Sync flush completed: %s", c.Request.URL.Path)
		} else {
			utils.ErrorLogger.Printf("Sync flush failed with status %d: %s", c.Writer.Status(), c.Request.URL.Path)
		}
	}
}
