package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lunchline/pos-server/middlewares"
	"github.com/lunchline/pos-server/models"
	"github.com/lunchline/pos-server/monitor"
	"github.com/lunchline/pos-server/services"
	"github.com/lunchline/pos-server/utils"
	"gorm.io/gorm"
)

// SyncController is the upload surface registers talk to when they come
// back online. Every endpoint takes a JSON array, settles each item
// independently, and answers with per-item results the register uses to
// mark its local queue. Batch-level failures keep the queue untouched.
type SyncController struct {
	DB           *gorm.DB
	transactions *services.TransactionSyncService
	payments     *services.PaymentSyncService
	deletions    *services.DeletionSyncService
	validation   *services.ValidationService
}

func NewSyncController(db *gorm.DB, families *services.FamilyAllocator) *SyncController {
	return &SyncController{
		DB:           db,
		transactions: services.NewTransactionSyncService(db, families),
		payments:     services.NewPaymentSyncService(db),
		deletions:    services.NewDeletionSyncService(db),
		validation:   services.NewValidationService(db),
	}
}

type syncError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondSyncFailure(c *gin.Context, status int, code string, err error) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   syncError{Code: code, Message: err.Error()},
	})
}

func respondSyncResult(c *gin.Context, batchID string, result *services.SyncResult) {
	resp := gin.H{
		"success": true,
		"batchId": batchID,
		"results": result.Results,
	}
	if result.CashTransactionsFailed {
		resp["cashTransactionsFailed"] = true
		resp["warning"] = "Cash transactions were not recorded: the cash account is not configured"
	}
	c.JSON(http.StatusOK, resp)
}

// UploadTransactions accepts one batch of offline sales.
func (sc *SyncController) UploadTransactions(c *gin.Context) {
	session, ok := middlewares.SessionFromContext(c)
	if !ok {
		respondSyncFailure(c, http.StatusUnauthorized, "NOT_AUTHORIZED", errors.New("session not resolved"))
		return
	}

	var items []services.TransactionUpload
	if err := c.ShouldBindJSON(&items); err != nil {
		respondSyncFailure(c, http.StatusBadRequest, "VALIDATION_FAILED", err)
		return
	}

	for i := range items {
		if err := validateUpload(items[i].SyncKey, items[i].Date, items[i].MealType, items[i].LineNum); err != nil {
			respondSyncFailure(c, http.StatusBadRequest, "VALIDATION_FAILED", fmt.Errorf("item %d: %v", i, err))
			return
		}
	}
	for i := range items {
		if !session.CanActOnLine(items[i].MealType, items[i].LineNum) {
			respondSyncFailure(c, http.StatusForbidden, "NOT_AUTHORIZED",
				fmt.Errorf("session may not record on line %s", models.LineRef(items[i].MealType, items[i].LineNum)))
			return
		}
	}

	batchID := uuid.NewString()
	sc.markSyncing(session)

	result, err := sc.transactions.SubmitBatch(session, items)
	if err != nil {
		utils.ErrorLogger.Printf("Transaction batch %s from session %d failed: %v", batchID, session.ID, err)
		respondSyncFailure(c, http.StatusInternalServerError, services.CodeStorageFailure,
			errors.New("batch was not stored, retry the same batch"))
		return
	}

	summary := summarize(batchID, session, result)
	monitor.BroadcastBatchSynced(monitor.EventTransactionsSynced, summary)
	utils.InfoLogger.Printf("Transaction batch %s: %d items, %d accepted, %d duplicates, %d failed",
		batchID, len(items), summary.Accepted, summary.Duplicates, summary.Failed)

	respondSyncResult(c, batchID, result)
}

// UploadPayments accepts one batch of offline deposits.
func (sc *SyncController) UploadPayments(c *gin.Context) {
	session, ok := middlewares.SessionFromContext(c)
	if !ok {
		respondSyncFailure(c, http.StatusUnauthorized, "NOT_AUTHORIZED", errors.New("session not resolved"))
		return
	}

	var items []services.PaymentUpload
	if err := c.ShouldBindJSON(&items); err != nil {
		respondSyncFailure(c, http.StatusBadRequest, "VALIDATION_FAILED", err)
		return
	}

	for i := range items {
		if err := validateUpload(items[i].SyncKey, items[i].Date, items[i].MealType, items[i].LineNum); err != nil {
			respondSyncFailure(c, http.StatusBadRequest, "VALIDATION_FAILED", fmt.Errorf("item %d: %v", i, err))
			return
		}
	}
	for i := range items {
		if !session.CanActOnLine(items[i].MealType, items[i].LineNum) {
			respondSyncFailure(c, http.StatusForbidden, "NOT_AUTHORIZED",
				fmt.Errorf("session may not record on line %s", models.LineRef(items[i].MealType, items[i].LineNum)))
			return
		}
	}

	batchID := uuid.NewString()
	sc.markSyncing(session)

	result, err := sc.payments.SubmitBatch(session, items)
	if err != nil {
		utils.ErrorLogger.Printf("Payment batch %s from session %d failed: %v", batchID, session.ID, err)
		respondSyncFailure(c, http.StatusInternalServerError, services.CodeStorageFailure,
			errors.New("batch was not stored, retry the same batch"))
		return
	}

	summary := summarize(batchID, session, result)
	monitor.BroadcastBatchSynced(monitor.EventPaymentsSynced, summary)
	utils.InfoLogger.Printf("Payment batch %s: %d items, %d accepted, %d duplicates, %d failed",
		batchID, len(items), summary.Accepted, summary.Duplicates, summary.Failed)

	respondSyncResult(c, batchID, result)
}

// UploadDeletions accepts one batch of offline voids.
func (sc *SyncController) UploadDeletions(c *gin.Context) {
	session, ok := middlewares.SessionFromContext(c)
	if !ok {
		respondSyncFailure(c, http.StatusUnauthorized, "NOT_AUTHORIZED", errors.New("session not resolved"))
		return
	}

	var items []services.DeletionUpload
	if err := c.ShouldBindJSON(&items); err != nil {
		respondSyncFailure(c, http.StatusBadRequest, "VALIDATION_FAILED", err)
		return
	}

	for i := range items {
		if _, err := utils.ParseSyncKey(items[i].SyncKey); err != nil {
			respondSyncFailure(c, http.StatusBadRequest, "VALIDATION_FAILED", fmt.Errorf("item %d: %v", i, err))
			return
		}
		if _, err := utils.ParseSyncKey(items[i].TargetSyncKey); err != nil {
			respondSyncFailure(c, http.StatusBadRequest, "VALIDATION_FAILED", fmt.Errorf("item %d target: %v", i, err))
			return
		}
	}

	batchID := uuid.NewString()
	sc.markSyncing(session)

	result, err := sc.deletions.SubmitBatch(session, items)
	if err != nil {
		utils.ErrorLogger.Printf("Deletion batch %s from session %d failed: %v", batchID, session.ID, err)
		respondSyncFailure(c, http.StatusInternalServerError, services.CodeStorageFailure,
			errors.New("batch was not stored, retry the same batch"))
		return
	}

	summary := summarize(batchID, session, result)
	monitor.BroadcastBatchSynced(monitor.EventDeletionsSynced, summary)
	utils.InfoLogger.Printf("Deletion batch %s: %d items, %d accepted, %d duplicates, %d failed",
		batchID, len(items), summary.Accepted, summary.Duplicates, summary.Failed)

	respondSyncResult(c, batchID, result)
}

// ValidateSync compares a register's local store against the server.
func (sc *SyncController) ValidateSync(c *gin.Context) {
	session, ok := middlewares.SessionFromContext(c)
	if !ok {
		respondSyncFailure(c, http.StatusUnauthorized, "NOT_AUTHORIZED", errors.New("session not resolved"))
		return
	}

	var req services.ValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondSyncFailure(c, http.StatusBadRequest, "VALIDATION_FAILED", err)
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		respondSyncFailure(c, http.StatusBadRequest, "VALIDATION_FAILED",
			fmt.Errorf("date %q is not YYYY-MM-DD", req.Date))
		return
	}
	if req.LineNum > 0 && !session.CanActOnLine(req.MealType, req.LineNum) {
		respondSyncFailure(c, http.StatusForbidden, "NOT_AUTHORIZED",
			fmt.Errorf("session may not inspect line %s", models.LineRef(req.MealType, req.LineNum)))
		return
	}

	result, err := sc.validation.Validate(session, &req)
	if err != nil {
		utils.ErrorLogger.Printf("Validation for session %d failed: %v", session.ID, err)
		respondSyncFailure(c, http.StatusInternalServerError, services.CodeStorageFailure,
			errors.New("validation could not be computed"))
		return
	}

	utils.InfoLogger.Printf("Validation (%s) for session %d on %s %s: inSync=%v",
		result.Mode, session.ID, req.Date, req.MealType, result.InSync)

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"isInSync":          result.InSync,
		"mode":              result.Mode,
		"transactionCount":  result.TransactionCount,
		"paymentCount":      result.PaymentCount,
		"missingFromServer": result.MissingFromServer,
		"extraOnServer":     result.ExtraOnServer,
	})
}

func validateUpload(syncKey, date, mealType string, lineNum int) error {
	if _, err := utils.ParseSyncKey(syncKey); err != nil {
		return err
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("date %q is not YYYY-MM-DD", date)
	}
	// the columns hold one meal character and a non-negative line
	if utf8.RuneCountInString(mealType) != 1 {
		return fmt.Errorf("mealType %q is not a single character", mealType)
	}
	if lineNum < 0 {
		return fmt.Errorf("lineNum %d is negative", lineNum)
	}
	return nil
}

// markSyncing records that the session has begun flushing. It stays
// syncing until a full validation pass confirms the register is clean.
func (sc *SyncController) markSyncing(session *models.Session) {
	if session.Status == models.SessionSyncing {
		return
	}

	err := sc.DB.Model(&models.Session{}).
		Where("id = ?", session.ID).
		Update("status", models.SessionSyncing).Error
	if err != nil {
		utils.ErrorLogger.Printf("Could not mark session %d as syncing: %v", session.ID, err)
		return
	}
	session.Status = models.SessionSyncing
}

func summarize(batchID string, session *models.Session, result *services.SyncResult) monitor.BatchSummary {
	summary := monitor.BatchSummary{
		BatchID:   batchID,
		SessionID: session.ID,
		LineLogID: session.LineLogID,
	}
	for _, r := range result.Results {
		switch {
		case r.Duplicate:
			summary.Duplicates++
		case r.Success:
			summary.Accepted++
		default:
			summary.Failed++
		}
	}
	return summary
}
