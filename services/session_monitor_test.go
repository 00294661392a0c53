package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lunchline/pos-server/models"
)

func openMonitorDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Station{},
		&models.LineLog{},
		&models.Session{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestSessionMonitorAbandonsIdleSessions(t *testing.T) {
	db := openMonitorDB(t)

	stale := models.Session{
		StationID:      1,
		UserID:         1,
		LineLogID:      1,
		Abilities:      []string{"line:L10"},
		Status:         models.SessionActive,
		LastActivityAt: time.Now().Add(-3 * time.Hour),
	}
	staleSyncing := models.Session{
		StationID:      1,
		UserID:         2,
		LineLogID:      1,
		Abilities:      []string{"line:L10"},
		Status:         models.SessionSyncing,
		LastActivityAt: time.Now().Add(-3 * time.Hour),
	}
	fresh := models.Session{
		StationID:      2,
		UserID:         3,
		LineLogID:      1,
		Abilities:      []string{"line:L10"},
		Status:         models.SessionActive,
		LastActivityAt: time.Now(),
	}
	for _, s := range []*models.Session{&stale, &staleSyncing, &fresh} {
		if err := db.Create(s).Error; err != nil {
			t.Fatalf("seed session: %v", err)
		}
	}

	sm := NewSessionMonitor(db, 2*time.Hour)
	sm.checkSessions()

	var got models.Session
	if err := db.First(&got, stale.ID).Error; err != nil {
		t.Fatalf("reload stale: %v", err)
	}
	if got.Status != models.SessionAbandoned {
		t.Errorf("stale session status = %q, want %q", got.Status, models.SessionAbandoned)
	}
	if got.ClosedAt == nil {
		t.Error("stale session has no closed_at")
	}

	// every live status ages out, not just active
	got = models.Session{} // First would otherwise filter on the stale id
	if err := db.First(&got, staleSyncing.ID).Error; err != nil {
		t.Fatalf("reload syncing: %v", err)
	}
	if got.Status != models.SessionAbandoned {
		t.Errorf("stale syncing session status = %q, want %q", got.Status, models.SessionAbandoned)
	}

	got = models.Session{}
	if err := db.First(&got, fresh.ID).Error; err != nil {
		t.Fatalf("reload fresh: %v", err)
	}
	if got.Status != models.SessionActive {
		t.Errorf("fresh session status = %q, want %q", got.Status, models.SessionActive)
	}
	if got.ClosedAt != nil {
		t.Error("fresh session was closed")
	}
}

func TestSessionMonitorStops(t *testing.T) {
	db := openMonitorDB(t)

	sm := NewSessionMonitor(db, time.Hour)
	sm.Interval = 5 * time.Millisecond
	sm.Start()
	time.Sleep(20 * time.Millisecond)
	sm.Stop()
}
