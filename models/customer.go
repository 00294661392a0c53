package models

import "time"

// Customer is one roster account. The family id groups siblings onto a
// shared balance; anonymous cash buyers all resolve to a single
// placeholder row whose account number is the cash code.
type Customer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AccountNo      string    `gorm:"type:varchar(20);not null;uniqueIndex" json:"account_no"`
	FirstName      string    `gorm:"type:varchar(100)" json:"first_name"`
	LastName       string    `gorm:"type:varchar(100)" json:"last_name"`
	FamilyID       int64     `gorm:"not null;default:0;index" json:"family_id"`
	SchoolCode     string    `gorm:"type:varchar(10)" json:"school_code"`
	Status         string    `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	ApprovalMethod string    `gorm:"type:varchar(20)" json:"approval_method"`
	ApprovalCode   string    `gorm:"type:varchar(20)" json:"approval_code"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
