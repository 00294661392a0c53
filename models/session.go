package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	SessionActive    = "active"
	SessionSyncing   = "syncing"
	SessionSynced    = "synced"
	SessionAbandoned = "abandoned"
)

// Session is one cashier login on one station, bound to one line log.
// A session authorizes uploads through its ability list and stays the
// unit of accountability for everything the station records offline.
type Session struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	StationID      uint       `gorm:"not null;index" json:"station_id"`
	Station        Station    `gorm:"foreignKey:StationID" json:"station,omitempty"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	User           User       `gorm:"foreignKey:UserID" json:"-"`
	LineLogID      uint       `gorm:"not null;index" json:"line_log_id"`
	LineLog        LineLog    `gorm:"foreignKey:LineLogID" json:"line_log,omitempty"`
	Abilities      []string   `gorm:"serializer:json;type:text" json:"abilities"`
	Status         string     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// LiveSessionStatuses lists the states in which a token still resolves.
// Abandoned sessions are invisible to lookup.
func LiveSessionStatuses() []string {
	return []string{SessionActive, SessionSyncing, SessionSynced}
}

// UnflushedSessionStatuses lists the states that block a line close:
// sessions that may still hold records not yet uploaded. A synced
// session has proven it is drained and stands in nobody's way.
func UnflushedSessionStatuses() []string {
	return []string{SessionActive, SessionSyncing}
}

// LineRef builds the ability string for one serving line, e.g. "line:L10".
func LineRef(mealType string, lineNum int) string {
	return fmt.Sprintf("line:%s%d", mealType, lineNum)
}

// CanActOnLine reports whether the session may record against the given
// line. An ability matches exactly, or by prefix when it ends in "*"
// ("line:*" covers every line).
func (s *Session) CanActOnLine(mealType string, lineNum int) bool {
	ref := LineRef(mealType, lineNum)
	for _, ability := range s.Abilities {
		if ability == ref {
			return true
		}
		if strings.HasSuffix(ability, "*") && strings.HasPrefix(ref, strings.TrimSuffix(ability, "*")) {
			return true
		}
	}
	return false
}
