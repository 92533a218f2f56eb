package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roomtin/hyprconnect/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for all history database operations.
type Store interface {
	RecordSnapshot(ctx context.Context, snap model.DaemonState, transitions []model.Transition) error
	RecentEvents(ctx context.Context, deviceID string, limit int) ([]model.DeviceEvent, error)
	KnownDevices(ctx context.Context) ([]model.KnownDevice, error)
	SaveSubscription(ctx context.Context, sub model.PushSubscription, deviceIDs []string) error
	SubscribedDevices(ctx context.Context, endpoint string) ([]string, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// RecordSnapshot upserts every device in snap and appends one event per
// transition. last_seen_at only advances for reachable devices.
func (s *gormStore) RecordSnapshot(ctx context.Context, snap model.DaemonState, transitions []model.Transition) error {
	if len(snap.Devices) == 0 && len(transitions) == 0 {
		return nil
	}
	seenAt := time.Now().UTC()
	if snap.UpdatedAt != nil {
		seenAt = *snap.UpdatedAt
	}

	var reachable, unreachable []model.KnownDevice
	for _, d := range snap.Devices {
		row := model.KnownDevice{ID: d.ID, Name: d.Name, Paired: d.Paired}
		if d.Reachable {
			row.LastSeenAt = seenAt
			reachable = append(reachable, row)
		} else {
			unreachable = append(unreachable, row)
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := upsertDevices(tx, reachable, "name", "paired", "last_seen_at", "updated_at"); err != nil {
			return err
		}
		if err := upsertDevices(tx, unreachable, "name", "paired", "updated_at"); err != nil {
			return err
		}

		if len(transitions) == 0 {
			return nil
		}
		events := make([]model.DeviceEvent, 0, len(transitions))
		for _, t := range transitions {
			events = append(events, model.DeviceEvent{DeviceID: t.DeviceID, Kind: t.Kind, ObservedAt: t.ObservedAt})
		}
		if err := tx.Create(&events).Error; err != nil {
			return errors.Wrap(err, "failed to insert device events")
		}
		return nil
	})
}

func upsertDevices(tx *gorm.DB, rows []model.KnownDevice, columns ...string) error {
	if len(rows) == 0 {
		return nil
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&rows).Error
	return errors.Wrap(err, "failed to upsert known devices")
}

// RecentEvents returns the newest events for a device, newest first.
func (s *gormStore) RecentEvents(ctx context.Context, deviceID string, limit int) ([]model.DeviceEvent, error) {
	var events []model.DeviceEvent
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("observed_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load events for %s", deviceID)
	}
	return events, nil
}

// KnownDevices lists every device ever recorded.
func (s *gormStore) KnownDevices(ctx context.Context) ([]model.KnownDevice, error) {
	var devices []model.KnownDevice
	if err := s.db.WithContext(ctx).Order("id").Find(&devices).Error; err != nil {
		return nil, errors.Wrap(err, "failed to load known devices")
	}
	return devices, nil
}

// SaveSubscription creates or replaces a push subscription and its device set.
// Unknown device ids are ignored.
func (s *gormStore) SaveSubscription(ctx context.Context, sub model.PushSubscription, deviceIDs []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&sub).Error; err != nil {
			return err
		}

		var devices []*model.KnownDevice
		if len(deviceIDs) > 0 {
			if err := tx.Where("id IN ?", deviceIDs).Find(&devices).Error; err != nil {
				return err
			}
		}

		return tx.Model(&sub).Association("Devices").Replace(devices)
	})
}

// SubscribedDevices returns the device ids a subscription follows.
func (s *gormStore) SubscribedDevices(ctx context.Context, endpoint string) ([]string, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).Preload("Devices").First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(sub.Devices))
	for i, d := range sub.Devices {
		ids[i] = d.ID
	}
	return ids, nil
}

// DeleteSubscription removes a subscription and its device links.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := model.PushSubscription{Endpoint: endpoint}
		if err := tx.Model(&sub).Association("Devices").Clear(); err != nil {
			return err
		}
		return tx.Delete(&sub).Error
	})
}
