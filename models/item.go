package models

import "time"

// Item-type classification characters. The reimbursable meal types are
// the ones that carry subsidy-approval provenance on a sale; everything
// else is plain a la carte style revenue.
const (
	ItemTypeLunch     = "L"
	ItemTypeBreakfast = "B"
	ItemTypeSnack     = "A"
	ItemTypeSummer    = "X"
	ItemTypeALaCarte  = "C"
	ItemTypeMilk      = "M"
	ItemTypeGuest     = "G"
	ItemTypeStaff     = "S"
)

// TransCodeALaCarte is the catch-all billing code applied when neither
// the register nor the catalog supplies one.
const TransCodeALaCarte = "AL"

// ReimbursableType reports whether an item-type character belongs to a
// reimbursable meal program.
func ReimbursableType(itemType string) bool {
	switch itemType {
	case ItemTypeLunch, ItemTypeBreakfast, ItemTypeSnack, ItemTypeSummer:
		return true
	}
	return false
}

// Item is one catalog entry a register can ring up.
type Item struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Type      string    `gorm:"type:varchar(1);not null;default:'C'" json:"type"`
	TransCode string    `gorm:"type:varchar(2)" json:"trans_code"`
	Price     float64   `gorm:"type:decimal(10,2);not null;default:0.00" json:"price"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
