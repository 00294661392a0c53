package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lunchline/pos-server/middlewares"
	"github.com/lunchline/pos-server/models"
	"github.com/lunchline/pos-server/monitor"
	"github.com/lunchline/pos-server/utils"
	"gorm.io/gorm"
)

type LineLogController struct {
	DB *gorm.DB
}

func NewLineLogController(db *gorm.DB) *LineLogController {
	return &LineLogController{DB: db}
}

// OpenLine moves a line to open and records the starting till count.
// Opening an already open line is a no-op so a register retry never
// clobbers the till snapshot; a closed line stays closed for the day.
func (lc *LineLogController) OpenLine(c *gin.Context) {
	var req struct {
		Date      string  `json:"date"`
		MealType  string  `json:"meal_type" binding:"required"`
		LineNum   int     `json:"line_num" binding:"required"`
		StartTill *string `json:"start_till"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	}

	session, ok := middlewares.SessionFromContext(c)
	if !ok || !session.CanActOnLine(req.MealType, req.LineNum) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var lineLog models.LineLog
	err := lc.DB.Where("date = ? AND meal_type = ? AND line_num = ?", req.Date, req.MealType, req.LineNum).
		First(&lineLog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		now := time.Now()
		lineLog = models.LineLog{
			Date:      req.Date,
			MealType:  req.MealType,
			LineNum:   req.LineNum,
			Status:    models.LineOpen,
			StartTill: req.StartTill,
			OpenedAt:  &now,
		}
		if err := lc.DB.Create(&lineLog).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		monitor.BroadcastLineOpened(lineLog)
		utils.InfoLogger.Printf("Line %s opened for %s", lineLog.LineRef(), lineLog.Date)
		utils.RespondJSON(c, http.StatusOK, "Line opened", lineLog)
		return
	}
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	switch lineLog.Status {
	case models.LineClosed:
		utils.RespondError(c, http.StatusConflict, errors.New("line is already closed for the day"))
		return
	case models.LineOpen:
		utils.RespondJSON(c, http.StatusOK, "Line already open", lineLog)
		return
	}

	now := time.Now()
	err = lc.DB.Model(&lineLog).Updates(map[string]interface{}{
		"status":     models.LineOpen,
		"start_till": req.StartTill,
		"opened_at":  now,
	}).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	lineLog.Status = models.LineOpen
	lineLog.StartTill = req.StartTill
	lineLog.OpenedAt = &now

	monitor.BroadcastLineOpened(lineLog)
	utils.InfoLogger.Printf("Line %s opened for %s", lineLog.LineRef(), lineLog.Date)
	utils.RespondJSON(c, http.StatusOK, "Line opened", lineLog)
}

// CloseLine ends the day for a line, recording the ending till count.
// The close is refused while another session on the line may still
// hold unflushed records, because a register that has not flushed
// would lose its queue to an early close. The caller's own session
// never blocks it, and neither does a session already proven synced.
func (lc *LineLogController) CloseLine(c *gin.Context) {
	var req struct {
		Date     string  `json:"date"`
		MealType string  `json:"meal_type" binding:"required"`
		LineNum  int     `json:"line_num" binding:"required"`
		EndTill  *string `json:"end_till"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	}

	session, ok := middlewares.SessionFromContext(c)
	if !ok || !session.CanActOnLine(req.MealType, req.LineNum) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var lineLog models.LineLog
	err := lc.DB.Where("date = ? AND meal_type = ? AND line_num = ?", req.Date, req.MealType, req.LineNum).
		First(&lineLog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondError(c, http.StatusNotFound, errors.New("line log not found"))
		return
	}
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	switch lineLog.Status {
	case models.LineClosed:
		utils.RespondJSON(c, http.StatusOK, "Line already closed", lineLog)
		return
	case models.LineNotOpened:
		utils.RespondError(c, http.StatusConflict, errors.New("line was never opened"))
		return
	}

	blocking, err := lc.blockingSessions(lineLog.ID, session.ID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if blocking > 0 {
		utils.RespondJSON(c, http.StatusConflict, "Line has sessions still open", gin.H{
			"blocking_sessions": blocking,
		})
		return
	}

	now := time.Now()
	err = lc.DB.Model(&lineLog).Updates(map[string]interface{}{
		"status":    models.LineClosed,
		"end_till":  req.EndTill,
		"closed_at": now,
	}).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	lineLog.Status = models.LineClosed
	lineLog.EndTill = req.EndTill
	lineLog.ClosedAt = &now

	monitor.BroadcastLineClosed(lineLog)
	utils.InfoLogger.Printf("Line %s closed for %s", lineLog.LineRef(), lineLog.Date)
	utils.RespondJSON(c, http.StatusOK, "Line closed", lineLog)
}

// ReadyToClose reports whether a close would succeed right now, and
// how many sessions are in the way if not.
func (lc *LineLogController) ReadyToClose(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	mealType := c.Query("meal_type")
	lineNum, _ := strconv.Atoi(c.Query("line_num"))
	if mealType == "" || lineNum == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("meal_type and line_num are required"))
		return
	}

	session, ok := middlewares.SessionFromContext(c)
	if !ok || !session.CanActOnLine(mealType, lineNum) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var lineLog models.LineLog
	err := lc.DB.Where("date = ? AND meal_type = ? AND line_num = ?", date, mealType, lineNum).
		First(&lineLog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondError(c, http.StatusNotFound, errors.New("line log not found"))
		return
	}
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	blocking, err := lc.blockingSessions(lineLog.ID, session.ID)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Line status", gin.H{
		"status":            lineLog.Status,
		"ready":             lineLog.Status == models.LineOpen && blocking == 0,
		"blocking_sessions": blocking,
	})
}

// ListLineLogs returns every line for a day, for the back office.
func (lc *LineLogController) ListLineLogs(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	var lineLogs []models.LineLog
	err := lc.DB.Where("date = ?", date).
		Order("meal_type, line_num").
		Find(&lineLogs).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Line logs", lineLogs)
}

// blockingSessions counts sessions on the line, other than the
// caller's own, that may still hold unflushed records.
func (lc *LineLogController) blockingSessions(lineLogID, callerSessionID uint) (int64, error) {
	var blocking int64
	err := lc.DB.Model(&models.Session{}).
		Where("line_log_id = ? AND id <> ? AND status IN ?", lineLogID, callerSessionID, models.UnflushedSessionStatuses()).
		Count(&blocking).Error
	return blocking, err
}
