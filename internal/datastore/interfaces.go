package datastore

import "time"

// Interface is the datastore abstraction used by the monitoring loop and the
// dashboard. The production implementation is SQLite; tests use the in-memory
// SQLite driver or a mock.
type Interface interface {
	Open() error
	Close() error
	SavePostureEvent(event *PostureEvent) error
	SaveAlert(alert *AlertRecord) error
	RecentPostureEvents(limit int) ([]PostureEvent, error)
	RecentAlerts(limit int) ([]AlertRecord, error)
	DailyStats(day time.Time) (DailyStats, error)
}
