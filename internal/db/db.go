package db

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/roomtin/hyprconnect/config"
	"github.com/roomtin/hyprconnect/internal/model"
)

// IsPostgres reports whether dsn names a postgres server rather than a
// sqlite file.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Init initializes the history database connection and runs migrations.
func Init(cfg config.HistoryConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if IsPostgres(cfg.DSN) {
		dialector = postgres.Open(cfg.DSN)
	} else {
		if err := ensureDir(cfg.DSN); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(cfg.DSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to history database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sql.DB")
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	if db.Dialector.Name() == "sqlite" {
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, errors.Wrap(err, "enable sqlite foreign keys")
		}
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info().Str("driver", db.Dialector.Name()).Msg("history database ready")
	return db, nil
}

// Migrate creates or updates the history tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.KnownDevice{},
		&model.DeviceEvent{},
		&model.PushSubscription{},
	); err != nil {
		return errors.Wrap(err, "automigrate failed")
	}
	return nil
}

func ensureDir(dsn string) error {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0o700); err != nil {
		return errors.Wrapf(err, "create history dir for %s", dsn)
	}
	return nil
}
