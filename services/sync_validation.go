package services

import (
	"strings"
	"time"

	"github.com/lunchline/pos-server/models"
	"gorm.io/gorm"
)

const (
	ValidationCount = "count"
	ValidationFull  = "full"
)

// ValidationRequest asks whether a register's local store matches the
// server for one (date, meal, line) scope. Count mode is the cheap
// end-of-day check; full mode compares sync keys one by one.
type ValidationRequest struct {
	Mode             string   `json:"mode" binding:"required,oneof=count full"`
	Date             string   `json:"date" binding:"required"`
	MealType         string   `json:"mealType" binding:"required"`
	LineNum          int      `json:"lineNum"`
	Account          string   `json:"account"`
	TransactionCount int      `json:"transactionCount"`
	PaymentCount     int      `json:"paymentCount"`
	TransactionKeys  []string `json:"transactionKeys"`
	PaymentKeys      []string `json:"paymentKeys"`
}

// ValidationResult reports the comparison. Records the server holds
// that the register never sent do not break sync: other registers and
// back-office edits legitimately add rows to the same scope.
type ValidationResult struct {
	InSync            bool     `json:"isInSync"`
	Mode              string   `json:"mode"`
	TransactionCount  int64    `json:"transactionCount"`
	PaymentCount      int64    `json:"paymentCount"`
	MissingFromServer []string `json:"missingFromServer,omitempty"`
	ExtraOnServer     []string `json:"extraOnServer,omitempty"`
}

type ValidationService struct {
	DB *gorm.DB
}

func NewValidationService(db *gorm.DB) *ValidationService {
	return &ValidationService{DB: db}
}

// Validate runs the requested comparison. A full-mode pass that comes
// back in sync completes the session's sync cycle, moving it from
// syncing to synced.
func (s *ValidationService) Validate(session *models.Session, req *ValidationRequest) (*ValidationResult, error) {
	result := &ValidationResult{Mode: req.Mode}

	if err := s.scoped(&models.Transaction{}, req).Count(&result.TransactionCount).Error; err != nil {
		return nil, err
	}
	if err := s.scoped(&models.Payment{}, req).Count(&result.PaymentCount).Error; err != nil {
		return nil, err
	}

	switch req.Mode {
	case ValidationFull:
		var saleKeys, paymentKeys []string
		if err := s.scoped(&models.Transaction{}, req).Pluck("sync_key", &saleKeys).Error; err != nil {
			return nil, err
		}
		if err := s.scoped(&models.Payment{}, req).Pluck("sync_key", &paymentKeys).Error; err != nil {
			return nil, err
		}

		result.MissingFromServer = append(
			missingKeys(req.TransactionKeys, saleKeys),
			missingKeys(req.PaymentKeys, paymentKeys)...,
		)
		result.ExtraOnServer = append(
			missingKeys(saleKeys, req.TransactionKeys),
			missingKeys(paymentKeys, req.PaymentKeys)...,
		)
		result.InSync = len(result.MissingFromServer) == 0

		if result.InSync && session.Status == models.SessionSyncing {
			now := time.Now()
			err := s.DB.Model(&models.Session{}).
				Where("id = ? AND status = ?", session.ID, models.SessionSyncing).
				Updates(map[string]interface{}{
					"status":           models.SessionSynced,
					"last_activity_at": now,
				}).Error
			if err != nil {
				return nil, err
			}
			session.Status = models.SessionSynced
		}
	default:
		// register is in sync once it has nothing left to flush
		result.InSync = req.TransactionCount == 0 && req.PaymentCount == 0
	}

	return result, nil
}

func (s *ValidationService) scoped(model interface{}, req *ValidationRequest) *gorm.DB {
	q := s.DB.Model(model).Where("date = ? AND meal_type = ?", req.Date, req.MealType)
	if req.LineNum > 0 {
		q = q.Where("line_num = ?", req.LineNum)
	}
	if req.Account != "" {
		q = q.Where("UPPER(raw_account) = ?", strings.ToUpper(req.Account))
	}
	return q
}

// missingKeys returns the members of want absent from have.
func missingKeys(want, have []string) []string {
	set := make(map[string]bool, len(have))
	for _, k := range have {
		set[k] = true
	}

	var missing []string
	for _, k := range want {
		if !set[k] {
			missing = append(missing, k)
		}
	}
	return missing
}
