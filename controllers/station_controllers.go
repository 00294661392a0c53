package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lunchline/pos-server/models"
	"github.com/lunchline/pos-server/utils"
	"gorm.io/gorm"
)

type StationController struct {
	DB *gorm.DB
}

func NewStationController(db *gorm.DB) *StationController {
	return &StationController{DB: db}
}

// ListStations returns every registered device, most recently seen
// first. Stations are never deleted, so this is the full device
// history of the deployment.
func (sc *StationController) ListStations(c *gin.Context) {
	var stations []models.Station
	if err := sc.DB.Order("last_seen_at DESC").Find(&stations).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Stations", stations)
}

// ListSessions is the back-office view of who is or was logged in,
// filterable by status and line log. This is what a manager checks
// when a line close reports blocking sessions.
func (sc *StationController) ListSessions(c *gin.Context) {
	query := sc.DB.Preload("Station").Preload("LineLog").Order("id DESC").Limit(200)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if lineLogID := c.Query("line_log_id"); lineLogID != "" {
		query = query.Where("line_log_id = ?", lineLogID)
	}
	if date := c.Query("date"); date != "" {
		if _, err := time.Parse("2006-01-02", date); err == nil {
			query = query.Joins("JOIN line_logs ON line_logs.id = sessions.line_log_id").
				Where("line_logs.date = ?", date)
		}
	}

	var sessions []models.Session
	if err := query.Find(&sessions).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Sessions", sessions)
}
