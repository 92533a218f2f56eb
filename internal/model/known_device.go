package model

import "time"

// KnownDevice is a device the daemon has seen at least once.
type KnownDevice struct {
	ID         string    `gorm:"primaryKey;size:128"`
	Name       string    `gorm:"size:256;not null"`
	Paired     bool      `gorm:"not null"`
	LastSeenAt time.Time `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Associations
	Events []DeviceEvent `gorm:"foreignKey:DeviceID;constraint:OnDelete:CASCADE"`
}

// DeviceEvent records one reachability transition.
type DeviceEvent struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	DeviceID   string         `gorm:"size:128;not null;index:idx_device_event_device_observed,priority:1" json:"device_id"`
	Kind       TransitionKind `gorm:"size:32;not null" json:"kind"`
	ObservedAt time.Time      `gorm:"not null;index:idx_device_event_device_observed,priority:2" json:"observed_at"`
}
