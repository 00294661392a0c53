package services

import (
	"errors"
	"time"

	"github.com/lunchline/pos-server/models"
	"gorm.io/gorm"
)

// DeletionUpload names one record a register voided offline. The
// deletion carries its own sync key, so replaying a deletion batch is
// as safe as replaying an upload.
type DeletionUpload struct {
	SyncKey       string `json:"syncKey" binding:"required"`
	LocalID       uint   `json:"localId" binding:"required"`
	TargetSyncKey string `json:"targetSyncKey" binding:"required"`
}

// DeletionSyncService removes sales and payments with an audit trail.
// The snapshot insert and the live-row delete happen atomically; a
// target that is already gone still succeeds, marked notFound, because
// the register only needs to know the record no longer exists.
type DeletionSyncService struct {
	DB *gorm.DB
}

func NewDeletionSyncService(db *gorm.DB) *DeletionSyncService {
	return &DeletionSyncService{DB: db}
}

func (s *DeletionSyncService) SubmitBatch(session *models.Session, items []DeletionUpload) (*SyncResult, error) {
	result := &SyncResult{Results: make([]ItemResult, 0, len(items))}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for i := range items {
			res, err := s.processItem(tx, session, &items[i])
			if err != nil {
				return err
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

func (s *DeletionSyncService) processItem(tx *gorm.DB, session *models.Session, item *DeletionUpload) (ItemResult, error) {
	var existing models.TransactionLog
	err := tx.Where("delete_sync_key = ?", item.SyncKey).First(&existing).Error
	if err == nil {
		return duplicateResult(item.LocalID, item.SyncKey, existing.ID), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ItemResult{}, err
	}

	var sale models.Transaction
	err = tx.Where("sync_key = ?", item.TargetSyncKey).First(&sale).Error
	if err == nil {
		snapshot := snapshotTransaction(&sale, item.SyncKey, session.UserID)
		return s.finishDeletion(tx, item, snapshot, &models.Transaction{}, sale.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ItemResult{}, err
	}

	var payment models.Payment
	err = tx.Where("sync_key = ?", item.TargetSyncKey).First(&payment).Error
	if err == nil {
		snapshot := snapshotPayment(&payment, item.SyncKey, session.UserID)
		return s.finishDeletion(tx, item, snapshot, &models.Payment{}, payment.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ItemResult{}, err
	}

	// target never existed or was already voided, nothing left to do
	return notFoundResult(item.LocalID, item.SyncKey), nil
}

// finishDeletion removes the live row and writes the snapshot. A delete
// that hits zero rows means a parallel flush voided the target between
// our lookup and now, which still counts as done.
func (s *DeletionSyncService) finishDeletion(tx *gorm.DB, item *DeletionUpload, snapshot models.TransactionLog, target interface{}, targetID uint) (ItemResult, error) {
	del := tx.Where("id = ?", targetID).Delete(target)
	if del.Error != nil {
		return ItemResult{}, del.Error
	}
	if del.RowsAffected == 0 {
		return notFoundResult(item.LocalID, item.SyncKey), nil
	}

	if err := tx.Create(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var winner models.TransactionLog
			if err := tx.Where("delete_sync_key = ?", item.SyncKey).First(&winner).Error; err != nil {
				return ItemResult{}, err
			}
			return duplicateResult(item.LocalID, item.SyncKey, winner.ID), nil
		}
		return ItemResult{}, err
	}

	return acceptedResult(item.LocalID, item.SyncKey, snapshot.ID), nil
}

// voidedRecord finds the audit row for a sync key that was accepted and
// later deleted. The upload engines consult it after a live-table miss,
// so a replayed item whose row was voided answers as a duplicate with
// its original server id instead of being inserted again.
func voidedRecord(tx *gorm.DB, syncKey, recordType string) (*models.TransactionLog, error) {
	var voided models.TransactionLog
	err := tx.Where("original_sync_key = ? AND record_type = ?", syncKey, recordType).
		First(&voided).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &voided, nil
}

func snapshotTransaction(t *models.Transaction, deleteKey string, deletedBy uint) models.TransactionLog {
	return models.TransactionLog{
		DeleteSyncKey:   deleteKey,
		RecordType:      models.RecordTransaction,
		OriginalSyncKey: t.SyncKey,
		OriginalID:      t.ID,
		CustomerID:      t.CustomerID,
		FamilyID:        t.FamilyID,
		SchoolCode:      t.SchoolCode,
		ItemID:          t.ItemID,
		ItemType:        t.ItemType,
		TransCode:       t.TransCode,
		ApprovalMethod:  t.ApprovalMethod,
		ApprovalCode:    t.ApprovalCode,
		Amount:          t.Price,
		Date:            t.Date,
		MealType:        t.MealType,
		LineNum:         t.LineNum,
		LineLogID:       t.LineLogID,
		RawAccount:      t.RawAccount,
		RecordedAt:      t.SoldAt,
		DeletedBy:       deletedBy,
		DeletedOn:       time.Now(),
	}
}

func snapshotPayment(p *models.Payment, deleteKey string, deletedBy uint) models.TransactionLog {
	return models.TransactionLog{
		DeleteSyncKey:   deleteKey,
		RecordType:      models.RecordPayment,
		OriginalSyncKey: p.SyncKey,
		OriginalID:      p.ID,
		CustomerID:      p.CustomerID,
		FamilyID:        p.FamilyID,
		SchoolCode:      p.SchoolCode,
		Amount:          p.Amount,
		Method:          p.Method,
		Memo:            p.Memo,
		CheckNo:         p.CheckNo,
		Date:            p.Date,
		MealType:        p.MealType,
		LineNum:         p.LineNum,
		LineLogID:       p.LineLogID,
		RawAccount:      p.RawAccount,
		RecordedAt:      p.PaidAt,
		DeletedBy:       deletedBy,
		DeletedOn:       time.Now(),
	}
}
