package models

import "time"

// Transaction is one accepted sale. The sync key is the client-generated
// identity ("lineLog-session-local"); its unique index is what makes a
// replayed upload land on the original row instead of a second one.
type Transaction struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SyncKey        string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"sync_key"`
	CustomerID     *uint     `gorm:"index" json:"customer_id,omitempty"`
	Customer       *Customer `gorm:"foreignKey:CustomerID" json:"-"`
	FamilyID       int64     `gorm:"not null;default:0;index" json:"family_id"`
	SchoolCode     string    `gorm:"type:varchar(10)" json:"school_code"`
	ItemID         *uint     `gorm:"index" json:"item_id,omitempty"`
	ItemType       string    `gorm:"type:varchar(1);not null" json:"item_type"`
	TransCode      string    `gorm:"type:varchar(2);not null" json:"trans_code"`
	ApprovalMethod string    `gorm:"type:varchar(20)" json:"approval_method"`
	ApprovalCode   string    `gorm:"type:varchar(20)" json:"approval_code"`
	Price          float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Date           string    `gorm:"type:varchar(10);not null;index:ix_transactions_scope,priority:1" json:"date"`
	MealType       string    `gorm:"type:varchar(1);not null;index:ix_transactions_scope,priority:2" json:"meal_type"`
	LineNum        int       `gorm:"not null" json:"line_num"`
	LineLogID      uint      `gorm:"index" json:"line_log_id"`
	RawAccount     string    `gorm:"type:varchar(20)" json:"raw_account"`
	SoldAt         time.Time `json:"sold_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
