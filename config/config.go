package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// InitDB opens the MySQL pool from environment settings. TranslateError
// is on so unique-index violations surface as gorm.ErrDuplicatedKey;
// the sync engines depend on that to recognize a key someone else
// already owns.
func InitDB() (*gorm.DB, error) {
	user := getenv("DB_USER", "root")
	pass := os.Getenv("DB_PASS")
	host := getenv("DB_HOST", "127.0.0.1")
	port := getenv("DB_PORT", "3306")
	name := getenv("DB_NAME", "lunchline")

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, pass, host, port, name)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// SessionTimeout is how long a session may idle before the monitor
// abandons it. Service gaps between breakfast and lunch are normal, so
// the default is generous.
func SessionTimeout() time.Duration {
	minutes, err := strconv.Atoi(os.Getenv("SESSION_TIMEOUT_MINUTES"))
	if err != nil || minutes <= 0 {
		minutes = 240
	}
	return time.Duration(minutes) * time.Minute
}

// CashFamilyFloor overrides where synthetic billing-group ids start.
// Zero means use the built-in default.
func CashFamilyFloor() int64 {
	floor, err := strconv.ParseInt(os.Getenv("CASH_FAMILY_FLOOR"), 10, 64)
	if err != nil || floor <= 0 {
		return 0
	}
	return floor
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
