package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/lunchline/pos-server/models"
	"github.com/lunchline/pos-server/utils"
	"gorm.io/gorm"
)

// MonitorAuthMiddleware authenticates dashboard websocket connects.
// Browsers cannot set headers on a websocket handshake, so the token
// arrives as a query parameter; the session is still resolved against
// the database like any other request.
func MonitorAuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ParseSessionToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		var session models.Session
		err = db.Preload("User").
			Where("id = ? AND status IN ? AND closed_at IS NULL", claims.SessionID, models.LiveSessionStatuses()).
			First(&session).Error
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		c.Set(sessionContextKey, &session)
		c.Set("role", session.User.Role)

		c.Next()
	}
}
