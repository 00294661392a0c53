package models

import "time"

// CashFamily records one allocated synthetic billing-group id for an
// anonymous cash sale, scoped to (date, meal type). Allocation reads the
// scope's max and inserts the next id; the unique index is the hard
// guarantee that two sales can never share one.
type CashFamily struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      string    `gorm:"type:varchar(10);not null;uniqueIndex:ux_cash_families_scope,priority:1" json:"date"`
	MealType  string    `gorm:"type:varchar(1);not null;uniqueIndex:ux_cash_families_scope,priority:2" json:"meal_type"`
	FamilyID  int64     `gorm:"not null;uniqueIndex:ux_cash_families_scope,priority:3" json:"family_id"`
	CreatedAt time.Time `json:"created_at"`
}
