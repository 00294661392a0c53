package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lunchline/pos-server/models"
	"github.com/lunchline/pos-server/utils"
)

// RequireManager gates back-office endpoints. It runs after SessionAuth,
// so the session and its user are already loaded.
func RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := SessionFromContext(c)
		if !ok {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}

		if session.User.Role != models.RoleManager {
			utils.RespondError(c, http.StatusForbidden, fmt.Errorf("manager access required"))
			c.Abort()
			return
		}

		c.Next()
	}
}
