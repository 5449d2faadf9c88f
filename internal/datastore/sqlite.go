package datastore

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/errors"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/logging"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/observability/metrics"
)

// SQLiteStore implements Interface on a local SQLite file.
type SQLiteStore struct {
	DB     *gorm.DB
	path   string
	dm     *metrics.DatastoreMetrics
	logger *slog.Logger
}

// NewSQLiteStore creates a store for the given database path. Use ":memory:"
// for tests. Metrics may be nil.
func NewSQLiteStore(path string, dm *metrics.DatastoreMetrics) *SQLiteStore {
	log := logging.ForService("datastore")
	if log == nil {
		log = slog.Default().With("service", "datastore")
	}
	return &SQLiteStore{path: path, dm: dm, logger: log}
}

// Open connects to the SQLite database and migrates the schema.
func (store *SQLiteStore) Open() error {
	if store.path == "" {
		return errors.Newf("sqlite path is empty").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}

	db, err := gorm.Open(sqlite.Open(store.path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return errors.New(fmt.Errorf("failed to open SQLite database: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("path", store.path).
			Build()
	}

	if err := db.AutoMigrate(&PostureEvent{}, &AlertRecord{}); err != nil {
		return errors.New(fmt.Errorf("failed to migrate schema: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	store.DB = db
	store.logger.Info("sqlite datastore opened", "path", store.path)
	return nil
}

// Close releases the underlying connection.
func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// observe wraps a database operation with metrics bookkeeping.
func (store *SQLiteStore) observe(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	if store.dm != nil {
		store.dm.RecordOperation(operation)
		store.dm.ObserveQueryDuration(time.Since(start).Seconds())
		if err != nil {
			store.dm.RecordError(operation)
		}
	}
	return err
}

// SavePostureEvent inserts one posture segment.
func (store *SQLiteStore) SavePostureEvent(event *PostureEvent) error {
	if store.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return store.observe("save_posture_event", func() error {
		return store.DB.Create(event).Error
	})
}

// SaveAlert inserts one alert record.
func (store *SQLiteStore) SaveAlert(alert *AlertRecord) error {
	if store.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return store.observe("save_alert", func() error {
		return store.DB.Create(alert).Error
	})
}

// RecentPostureEvents returns the latest posture segments, newest first.
func (store *SQLiteStore) RecentPostureEvents(limit int) ([]PostureEvent, error) {
	var out []PostureEvent
	err := store.observe("recent_posture_events", func() error {
		return store.DB.Order("started_at desc").Limit(limit).Find(&out).Error
	})
	return out, err
}

// RecentAlerts returns the latest alerts, newest first.
func (store *SQLiteStore) RecentAlerts(limit int) ([]AlertRecord, error) {
	var out []AlertRecord
	err := store.observe("recent_alerts", func() error {
		return store.DB.Order("triggered_at desc").Limit(limit).Find(&out).Error
	})
	return out, err
}
