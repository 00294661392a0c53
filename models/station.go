package models

import "time"

// Station is one physical point-of-sale register. A station is identified
// by its device fingerprint (device id + browser + private mode) and is
// created on first contact; after that it is only ever updated, never
// deleted, so historical records always resolve to a device.
type Station struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DeviceID    string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_stations_fingerprint,priority:1" json:"device_id"`
	Browser     string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_stations_fingerprint,priority:2" json:"browser"`
	PrivateMode bool      `gorm:"not null;default:false;uniqueIndex:ux_stations_fingerprint,priority:3" json:"private_mode"`
	IPAddress   string    `gorm:"type:varchar(45)" json:"ip_address"`
	MACAddress  string    `gorm:"type:varchar(17)" json:"mac_address"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
