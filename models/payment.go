package models

import "time"

const (
	PaymentCash  = "cash"
	PaymentCheck = "check"
)

// Payment is one accepted deposit onto an account balance. Like a sale
// it is identified by its client-generated sync key. The memo follows
// the fixed register conventions ("CHK ..." for checks, meal/line tag
// for cash) that downstream reporting parses.
type Payment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SyncKey    string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"sync_key"`
	CustomerID *uint     `gorm:"index" json:"customer_id,omitempty"`
	Customer   *Customer `gorm:"foreignKey:CustomerID" json:"-"`
	FamilyID   int64     `gorm:"not null;default:0;index" json:"family_id"`
	SchoolCode string    `gorm:"type:varchar(10)" json:"school_code"`
	Amount     float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Method     string    `gorm:"type:varchar(10);not null;default:'cash'" json:"method"`
	Memo       string    `gorm:"type:varchar(20)" json:"memo"`
	CheckNo    string    `gorm:"type:varchar(20)" json:"check_no"`
	Date       string    `gorm:"type:varchar(10);not null;index:ix_payments_scope,priority:1" json:"date"`
	MealType   string    `gorm:"type:varchar(1);not null;index:ix_payments_scope,priority:2" json:"meal_type"`
	LineNum    int       `gorm:"not null" json:"line_num"`
	LineLogID  uint      `gorm:"index" json:"line_log_id"`
	RawAccount string    `gorm:"type:varchar(20)" json:"raw_account"`
	PaidAt     time.Time `json:"paid_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
