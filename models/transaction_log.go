package models

import "time"

const (
	RecordTransaction = "transaction"
	RecordPayment     = "payment"
)

// TransactionLog is the deletion audit trail. Deleting a sale or a
// payment copies the full row here and removes the live record in the
// same database transaction, so money never disappears without a trace.
// The deletion's own sync key is unique, which makes deletions as
// replay-safe as uploads.
type TransactionLog struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	DeleteSyncKey   string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"delete_sync_key"`
	RecordType      string    `gorm:"type:varchar(12);not null" json:"record_type"`
	OriginalSyncKey string    `gorm:"type:varchar(64);not null;index" json:"original_sync_key"`
	OriginalID      uint      `json:"original_id"`
	CustomerID      *uint     `json:"customer_id,omitempty"`
	FamilyID        int64     `gorm:"not null;default:0" json:"family_id"`
	SchoolCode      string    `gorm:"type:varchar(10)" json:"school_code"`
	ItemID          *uint     `json:"item_id,omitempty"`
	ItemType        string    `gorm:"type:varchar(1)" json:"item_type"`
	TransCode       string    `gorm:"type:varchar(2)" json:"trans_code"`
	ApprovalMethod  string    `gorm:"type:varchar(20)" json:"approval_method"`
	ApprovalCode    string    `gorm:"type:varchar(20)" json:"approval_code"`
	Amount          float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Method          string    `gorm:"type:varchar(10)" json:"method"`
	Memo            string    `gorm:"type:varchar(20)" json:"memo"`
	CheckNo         string    `gorm:"type:varchar(20)" json:"check_no"`
	Date            string    `gorm:"type:varchar(10);not null" json:"date"`
	MealType        string    `gorm:"type:varchar(1);not null" json:"meal_type"`
	LineNum         int       `json:"line_num"`
	LineLogID       uint      `json:"line_log_id"`
	RawAccount      string    `gorm:"type:varchar(20)" json:"raw_account"`
	RecordedAt      time.Time `json:"recorded_at"`
	DeletedBy       uint      `json:"deleted_by"`
	DeletedOn       time.Time `json:"deleted_on"`
	CreatedAt       time.Time `json:"created_at"`
}
