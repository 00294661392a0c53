package middlewares

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lunchline/pos-server/models"
	"github.com/lunchline/pos-server/utils"
	"gorm.io/gorm"
)

const sessionContextKey = "session"

// errSessionInvalid is the one message every auth failure returns, so a
// probe cannot tell a bad token from an abandoned session.
var errSessionInvalid = errors.New("invalid or expired session")

// SessionAuth resolves the bearer token to a live session row. The
// token alone is never enough: the session must still exist, be in a
// live status and not be closed, which is how logging in elsewhere or
// the idle sweep revokes access immediately.
func SessionAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errSessionInvalid)
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ParseSessionToken(tokenString)
		if err != nil || claims == nil || claims.SessionID == 0 {
			utils.RespondError(c, http.StatusUnauthorized, errSessionInvalid)
			c.Abort()
			return
		}

		var session models.Session
		err = db.Preload("User").Preload("LineLog").
			Where("id = ? AND status IN ? AND closed_at IS NULL", claims.SessionID, models.LiveSessionStatuses()).
			First(&session).Error
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, errSessionInvalid)
			c.Abort()
			return
		}

		// bookkeeping failures are logged, never fatal, but a session
		// that cannot record activity will age into the idle sweep
		now := time.Now()
		err = db.Model(&models.Session{}).Where("id = ?", session.ID).
			Update("last_activity_at", now).Error
		if err != nil {
			utils.ErrorLogger.Printf("Could not record activity for session %d: %v", session.ID, err)
		}
		err = db.Model(&models.Station{}).Where("id = ?", session.StationID).
			Update("last_seen_at", now).Error
		if err != nil {
			utils.ErrorLogger.Printf("Could not record last seen for station %d: %v", session.StationID, err)
		}
		session.LastActivityAt = now

		c.Set(sessionContextKey, &session)
		c.Next()
	}
}

// SessionFromContext returns the session SessionAuth resolved for this
// request.
func SessionFromContext(c *gin.Context) (*models.Session, bool) {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return nil, false
	}
	session, ok := value.(*models.Session)
	return session, ok
}
