package services

import (
	"log"
	"time"

	"github.com/lunchline/pos-server/models"
	"github.com/lunchline/pos-server/monitor"
	"gorm.io/gorm"
)

// SessionMonitor abandons sessions that went quiet without logging out,
// a register that lost power or walked away mid-day. Closing a line
// only waits on live sessions, so the sweep is what eventually unblocks
// a close after a crashed register.
type SessionMonitor struct {
	DB       *gorm.DB
	StopChan chan struct{}
	Interval time.Duration
	Timeout  time.Duration
}

func NewSessionMonitor(db *gorm.DB, timeout time.Duration) *SessionMonitor {
	return &SessionMonitor{
		DB:       db,
		StopChan: make(chan struct{}),
		Interval: 1 * time.Minute,
		Timeout:  timeout,
	}
}

func (sm *SessionMonitor) Start() {
	go func() {
		ticker := time.NewTicker(sm.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sm.checkSessions()
			case <-sm.StopChan:
				return
			}
		}
	}()
}

func (sm *SessionMonitor) Stop() {
	close(sm.StopChan)
}

func (sm *SessionMonitor) checkSessions() {
	cutoff := time.Now().Add(-sm.Timeout)

	res := sm.DB.Model(&models.Session{}).
		Where("status IN ? AND last_activity_at < ?", models.LiveSessionStatuses(), cutoff).
		Updates(map[string]interface{}{
			"status":    models.SessionAbandoned,
			"closed_at": time.Now(),
		})
	if res.Error != nil {
		log.Printf("Error expiring idle sessions: %v", res.Error)
		return
	}

	if res.RowsAffected > 0 {
		log.Printf("Abandoned %d idle sessions", res.RowsAffected)
		monitor.BroadcastSessionsExpired(res.RowsAffected)
	}
}
