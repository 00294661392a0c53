package services

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lunchline/pos-server/models"
	"gorm.io/gorm"
)

// checkMemoLimit is how many characters of the register memo survive
// after the "CHK " prefix. Downstream reporting reads a fixed-width
// field.
const checkMemoLimit = 14

// PaymentUpload is one account deposit as a register recorded it.
type PaymentUpload struct {
	SyncKey    string  `json:"syncKey" binding:"required"`
	LocalID    uint    `json:"localId" binding:"required"`
	Account    string  `json:"account" binding:"required"`
	Amount     float64 `json:"amount"`
	Method     string  `json:"method"`
	Memo       string  `json:"memo"`
	CheckNo    string  `json:"checkNo"`
	Date       string  `json:"date" binding:"required"`
	MealType   string  `json:"mealType" binding:"required"`
	LineNum    int     `json:"lineNum"`
	PaidAt     string  `json:"paidAt"`
	FamilyID   int64   `json:"familyId"`
	SchoolCode string  `json:"schoolCode"`
}

// PaymentSyncService accepts deposit batches under the same batch and
// idempotency contract as sales. Payments never allocate billing-group
// ids: a cash payment joins the family of the sale it settles, found by
// the shared raw account token in the same (date, meal) scope.
type PaymentSyncService struct {
	DB *gorm.DB
}

func NewPaymentSyncService(db *gorm.DB) *PaymentSyncService {
	return &PaymentSyncService{DB: db}
}

func (s *PaymentSyncService) SubmitBatch(session *models.Session, items []PaymentUpload) (*SyncResult, error) {
	result := &SyncResult{Results: make([]ItemResult, 0, len(items))}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		cash := &cashState{}
		for i := range items {
			res, err := s.processItem(tx, session, &items[i], cash)
			if err != nil {
				return err
			}
			if res.ErrorCode == CodeCashNotConfigured {
				result.CashTransactionsFailed = true
			}
			result.Results = append(result.Results, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *PaymentSyncService) processItem(tx *gorm.DB, session *models.Session, item *PaymentUpload, cash *cashState) (ItemResult, error) {
	var existing models.Payment
	err := tx.Where("sync_key = ?", item.SyncKey).First(&existing).Error
	if err == nil {
		return duplicateResult(item.LocalID, item.SyncKey, existing.ID), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ItemResult{}, err
	}

	// a key accepted earlier and voided since is still spent
	voided, err := voidedRecord(tx, item.SyncKey, models.RecordPayment)
	if err != nil {
		return ItemResult{}, err
	}
	if voided != nil {
		return duplicateResult(item.LocalID, item.SyncKey, voided.OriginalID), nil
	}

	method := NormalizePaymentMethod(item.Method)
	ref := ParseAccountRef(item.Account)

	var resolved ResolvedAccount
	if ref.Kind == AccountCash {
		cust, err := resolveCashCustomer(tx, cash)
		if errors.Is(err, ErrCashNotConfigured) {
			return failedResult(item.LocalID, item.SyncKey, CodeCashNotConfigured, err.Error()), nil
		}
		if err != nil {
			return ItemResult{}, err
		}

		familyID, err := s.priorCashFamily(tx, ref.Raw, item.Date, item.MealType)
		if err != nil {
			return ItemResult{}, err
		}

		resolved = ResolveAccountFields(cust, AccountHints{})
		resolved.FamilyID = familyID
	} else {
		var cust models.Customer
		err := tx.Where("account_no = ?", ref.Raw).First(&cust).Error
		switch {
		case err == nil:
			resolved = ResolveAccountFields(&cust, AccountHints{})
		case errors.Is(err, gorm.ErrRecordNotFound):
			resolved = ResolveAccountFields(nil, AccountHints{FamilyID: item.FamilyID, SchoolCode: item.SchoolCode})
		default:
			return ItemResult{}, err
		}
	}

	row := models.Payment{
		SyncKey:    item.SyncKey,
		CustomerID: resolved.CustomerID,
		FamilyID:   resolved.FamilyID,
		SchoolCode: resolved.SchoolCode,
		Amount:     item.Amount,
		Method:     method,
		Memo:       EncodeMemo(method, item.Memo, item.CheckNo, item.MealType, item.LineNum),
		CheckNo:    strings.TrimSpace(item.CheckNo),
		Date:       item.Date,
		MealType:   item.MealType,
		LineNum:    item.LineNum,
		LineLogID:  session.LineLogID,
		RawAccount: ref.Raw,
		PaidAt:     parseClientTime(item.PaidAt),
	}

	if err := tx.Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var winner models.Payment
			if err := tx.Where("sync_key = ?", item.SyncKey).First(&winner).Error; err != nil {
				return ItemResult{}, err
			}
			return duplicateResult(item.LocalID, item.SyncKey, winner.ID), nil
		}
		return ItemResult{}, err
	}

	return acceptedResult(item.LocalID, item.SyncKey, row.ID), nil
}

// priorCashFamily finds the billing-group id of the most recent cash
// sale sharing the payment's raw account token in the same scope. No
// match means no linkage, family zero.
func (s *PaymentSyncService) priorCashFamily(tx *gorm.DB, rawAccount, date, mealType string) (int64, error) {
	var sale models.Transaction
	err := tx.Where("UPPER(raw_account) = ? AND date = ? AND meal_type = ?",
		strings.ToUpper(rawAccount), date, mealType).
		Order("id DESC").
		First(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return sale.FamilyID, nil
}

// NormalizePaymentMethod folds whatever the register sent into the two
// supported methods. Anything that is not a check is cash.
func NormalizePaymentMethod(method string) string {
	if strings.EqualFold(strings.TrimSpace(method), models.PaymentCheck) {
		return models.PaymentCheck
	}
	return models.PaymentCash
}

// EncodeMemo reproduces the fixed memo conventions the back office
// parses. Checks carry "CHK " plus the first characters of the register
// memo, falling back to the check number. Cash carries the meal type
// and the line number's last digit.
func EncodeMemo(method, memo, checkNo, mealType string, lineNum int) string {
	if method == models.PaymentCheck {
		src := strings.TrimSpace(memo)
		if src == "" {
			src = strings.TrimSpace(checkNo)
		}
		if utf8.RuneCountInString(src) > checkMemoLimit {
			src = string([]rune(src)[:checkMemoLimit])
		}
		return "CHK " + src
	}
	return fmt.Sprintf("%s%d CASH", mealType, lineNum%10)
}
