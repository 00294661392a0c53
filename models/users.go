package models

import "time"

const (
	RoleCashier = "cashier"
	RoleManager = "manager"
)

type User struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"type:varchar(255); not null"`
	Username  string `gorm:"type:varchar(100); unique;not null"`
	Password  string `gorm:"type:varchar(255); not null"`
	Role      string `gorm:"type:varchar(20); not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
