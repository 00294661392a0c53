package models

import "time"

const (
	LineNotOpened = "not_opened"
	LineOpen      = "open"
	LineClosed    = "closed"
)

// LineLog is one serving line on one service day, identified by
// (date, meal type, line number). Status only moves forward:
// not_opened -> open -> closed. Till snapshots are stored as opaque
// JSON from the register's denomination count.
type LineLog struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Date      string     `gorm:"type:varchar(10);not null;uniqueIndex:ux_line_logs_day,priority:1" json:"date"`
	MealType  string     `gorm:"type:varchar(1);not null;uniqueIndex:ux_line_logs_day,priority:2" json:"meal_type"`
	LineNum   int        `gorm:"not null;uniqueIndex:ux_line_logs_day,priority:3" json:"line_num"`
	Status    string     `gorm:"type:varchar(20);not null;default:'not_opened'" json:"status"`
	StartTill *string    `gorm:"type:text" json:"start_till,omitempty"`
	EndTill   *string    `gorm:"type:text" json:"end_till,omitempty"`
	OpenedAt  *time.Time `json:"opened_at,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// LineRef returns the ability string that grants access to this line.
func (l *LineLog) LineRef() string {
	return LineRef(l.MealType, l.LineNum)
}
