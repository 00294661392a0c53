package services

import (
	"errors"
	"strings"
	"time"

	"github.com/lunchline/pos-server/models"
	"gorm.io/gorm"
)

// TransactionUpload is one sale as a register recorded it offline. The
// family and school fields are hints, the register's copy of roster
// data, used only when the server has no matching account.
type TransactionUpload struct {
	SyncKey    string  `json:"syncKey" binding:"required"`
	LocalID    uint    `json:"localId" binding:"required"`
	Account    string  `json:"account" binding:"required"`
	Price      float64 `json:"price"`
	Date       string  `json:"date" binding:"required"`
	MealType   string  `json:"mealType" binding:"required"`
	LineNum    int     `json:"lineNum"`
	ItemID     *uint   `json:"itemId"`
	ItemType   string  `json:"itemType"`
	TransCode  string  `json:"transCode"`
	SoldAt     string  `json:"soldAt"`
	FamilyID   int64   `json:"familyId"`
	SchoolCode string  `json:"schoolCode"`
}

// TransactionSyncService accepts sale batches. One batch runs in one
// database transaction: item-level business conditions (duplicates,
// unknown accounts, unconfigured cash) settle per item, anything
// unexpected rolls the whole batch back for the register to retry.
type TransactionSyncService struct {
	DB       *gorm.DB
	Families *FamilyAllocator
}

func NewTransactionSyncService(db *gorm.DB, families *FamilyAllocator) *TransactionSyncService {
	return &TransactionSyncService{DB: db, Families: families}
}

// SubmitBatch processes the items in order. Scope locks for cash
// allocation are taken up front, sorted, and held for the whole batch
// so concurrent flushes cannot interleave allocations in one scope.
func (s *TransactionSyncService) SubmitBatch(session *models.Session, items []TransactionUpload) (*SyncResult, error) {
	result := &SyncResult{Results: make([]ItemResult, 0, len(items))}

	var scopes []string
	for i := range items {
		if ParseAccountRef(items[i].Account).Kind == AccountCash {
			scopes = append(scopes, ScopeKey(items[i].Date, items[i].MealType))
		}
	}
	if len(scopes) > 0 {
		unlock := s.Families.LockScopes(scopes)
		defer unlock()
	}

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

func (s *TransactionSyncService) processItem(tx *gorm.DB, session *models.Session, item *TransactionUpload, cash *cashState) (ItemResult, error) {
	var existing models.Transaction
	err := tx.Where("sync_key = ?", item.SyncKey).First(&existing).Error
	if err == nil {
		return duplicateResult(item.LocalID, item.SyncKey, existing.ID), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ItemResult{}, err
	}

	// a key accepted earlier and voided since is still spent
	voided, err := voidedRecord(tx, item.SyncKey, models.RecordTransaction)
	if err != nil {
		return ItemResult{}, err
	}
	if voided != nil {
		return duplicateResult(item.LocalID, item.SyncKey, voided.OriginalID), nil
	}

	ref := ParseAccountRef(item.Account)

	var resolved ResolvedAccount
	if ref.Kind == AccountCash {
		cust, familyID, err := nextCashFamily(tx, s.Families, cash, item.Date, item.MealType)
		if errors.Is(err, ErrCashNotConfigured) {
			return failedResult(item.LocalID, item.SyncKey, CodeCashNotConfigured, err.Error()), nil
		}
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

	itemType, transCode, itemID, err := s.classify(tx, item)
	if err != nil {
		return ItemResult{}, err
	}

	// approval provenance only travels on reimbursable meal types
	approvalMethod, approvalCode := "", ""
	if models.ReimbursableType(itemType) {
		approvalMethod = resolved.ApprovalMethod
		approvalCode = resolved.ApprovalCode
	}

	row := models.Transaction{
		SyncKey:        item.SyncKey,
		CustomerID:     resolved.CustomerID,
		FamilyID:       resolved.FamilyID,
		SchoolCode:     resolved.SchoolCode,
		ItemID:         itemID,
		ItemType:       itemType,
		TransCode:      transCode,
		ApprovalMethod: approvalMethod,
		ApprovalCode:   approvalCode,
		Price:          item.Price,
		Date:           item.Date,
		MealType:       item.MealType,
		LineNum:        item.LineNum,
		LineLogID:      session.LineLogID,
		RawAccount:     ref.Raw,
		SoldAt:         parseClientTime(item.SoldAt),
	}

	if err := tx.Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a same-key race to a parallel flush
			var winner models.Transaction
			if err := tx.Where("sync_key = ?", item.SyncKey).First(&winner).Error; err != nil {
				return ItemResult{}, err
			}
			return duplicateResult(item.LocalID, item.SyncKey, winner.ID), nil
		}
		return ItemResult{}, err
	}

	return acceptedResult(item.LocalID, item.SyncKey, row.ID), nil
}

// classify picks the item type and billing code: the register's own
// values win, then the catalog record, then the a la carte defaults.
func (s *TransactionSyncService) classify(tx *gorm.DB, item *TransactionUpload) (string, string, *uint, error) {
	itemType := strings.ToUpper(strings.TrimSpace(item.ItemType))
	transCode := strings.ToUpper(strings.TrimSpace(item.TransCode))
	var itemID *uint

	if item.ItemID != nil {
		var catalog models.Item
		err := tx.First(&catalog, *item.ItemID).Error
		switch {
		case err == nil:
			id := catalog.ID
			itemID = &id
			if itemType == "" {
				itemType = catalog.Type
			}
			if transCode == "" {
				transCode = catalog.TransCode
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// stale register catalog, fall through to defaults
		default:
			return "", "", nil, err
		}
	}

	if itemType == "" {
		itemType = models.ItemTypeALaCarte
	}
	if transCode == "" {
		transCode = models.TransCodeALaCarte
	}
	return itemType, transCode, itemID, nil
}

func parseClientTime(raw string) time.Time {
	if raw == "" {
		return time.Now()
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Now()
	}
	return t
}
