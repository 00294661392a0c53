package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lunchline/pos-server/middlewares"
	"github.com/lunchline/pos-server/models"
	"github.com/lunchline/pos-server/monitor"
	"github.com/lunchline/pos-server/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthController struct {
	DB *gorm.DB
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db}
}

// Login opens a session for one cashier on one station and line. The
// station is registered on first contact, the day's line log is created
// lazily, and any session the user still had open elsewhere is
// abandoned so there is exactly one live login per user.
func (ac *AuthController) Login(c *gin.Context) {
	var req struct {
		Username    string `json:"username" binding:"required"`
		Password    string `json:"password" binding:"required"`
		DeviceID    string `json:"device_id" binding:"required"`
		Browser     string `json:"browser" binding:"required"`
		PrivateMode bool   `json:"private_mode"`
		MACAddress  string `json:"mac_address"`
		MealType    string `json:"meal_type" binding:"required"`
		LineNum     int    `json:"line_num" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := ac.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	now := time.Now()

	station, err := ac.resolveStation(req.DeviceID, req.Browser, req.PrivateMode, c.ClientIP(), req.MACAddress, now)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	lineLog, err := ac.resolveLineLog(now.Format("2006-01-02"), req.MealType, req.LineNum)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	// one live login per user: whatever they left open elsewhere dies now
	err = ac.DB.Model(&models.Session{}).
		Where("user_id = ? AND status IN ?", user.ID, models.LiveSessionStatuses()).
		Updates(map[string]interface{}{
			"status":    models.SessionAbandoned,
			"closed_at": now,
		}).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	abilities := []string{models.LineRef(req.MealType, req.LineNum)}
	if user.Role == models.RoleManager {
		abilities = []string{"line:*"}
	}

	session := models.Session{
		StationID:      station.ID,
		UserID:         user.ID,
		LineLogID:      lineLog.ID,
		Abilities:      abilities,
		Status:         models.SessionActive,
		LastActivityAt: now,
	}
	if err := ac.DB.Create(&session).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	token, err := utils.GenerateSessionToken(session.ID, station.ID, user.ID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	session.Station = *station
	session.LineLog = *lineLog
	monitor.BroadcastSessionStarted(session)
	utils.InfoLogger.Printf("Session %d opened for %s on %s (station %d)",
		session.ID, user.Username, lineLog.LineRef(), station.ID)

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":       token,
		"session_id":  session.ID,
		"station_id":  station.ID,
		"line_log_id": lineLog.ID,
		"abilities":   abilities,
		"role":        user.Role,
	})
}

// Logout abandons the calling session. The token keeps its signature
// but stops resolving, which is the only revocation that matters.
func (ac *AuthController) Logout(c *gin.Context) {
	session, ok := middlewares.SessionFromContext(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("session not resolved"))
		return
	}

	now := time.Now()
	err := ac.DB.Model(&models.Session{}).
		Where("id = ?", session.ID).
		Updates(map[string]interface{}{
			"status":    models.SessionAbandoned,
			"closed_at": now,
		}).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	session.Status = models.SessionAbandoned
	session.ClosedAt = &now
	monitor.BroadcastSessionEnded(*session)
	utils.InfoLogger.Printf("Session %d closed by logout", session.ID)

	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

func (ac *AuthController) resolveStation(deviceID, browser string, privateMode bool, ip, mac string, now time.Time) (*models.Station, error) {
	var station models.Station
	err := ac.DB.Where("device_id = ? AND browser = ? AND private_mode = ?", deviceID, browser, privateMode).
		First(&station).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		station = models.Station{
			DeviceID:    deviceID,
			Browser:     browser,
			PrivateMode: privateMode,
			IPAddress:   ip,
			MACAddress:  mac,
			LastSeenAt:  now,
		}
		if err := ac.DB.Create(&station).Error; err != nil {
			// two first logins from one device can race the create
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				if err := ac.DB.Where("device_id = ? AND browser = ? AND private_mode = ?", deviceID, browser, privateMode).
					First(&station).Error; err != nil {
					return nil, err
				}
				return &station, nil
			}
			return nil, err
		}
		return &station, nil
	case err != nil:
		return nil, err
	}

	err = ac.DB.Model(&station).Updates(map[string]interface{}{
		"ip_address":   ip,
		"mac_address":  mac,
		"last_seen_at": now,
	}).Error
	if err != nil {
		return nil, err
	}
	return &station, nil
}

func (ac *AuthController) resolveLineLog(date, mealType string, lineNum int) (*models.LineLog, error) {
	var lineLog models.LineLog
	err := ac.DB.Where("date = ? AND meal_type = ? AND line_num = ?", date, mealType, lineNum).
		First(&lineLog).Error
	if err == nil {
		return &lineLog, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	lineLog = models.LineLog{
		Date:     date,
		MealType: mealType,
		LineNum:  lineNum,
		Status:   models.LineNotOpened,
	}
	if err := ac.DB.Create(&lineLog).Error; err != nil {
		// two stations logging onto the same line can race the first create
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if err := ac.DB.Where("date = ? AND meal_type = ? AND line_num = ?", date, mealType, lineNum).
				First(&lineLog).Error; err != nil {
				return nil, err
			}
			return &lineLog, nil
		}
		return nil, err
	}
	return &lineLog, nil
}

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}

var ErrNoPermission = &CustomError{Message: "You do not have permission to access this line"}
