// Package datastore handles SQLite persistence of posture events and alert
// history, and the aggregate queries behind the dashboard statistics.
package datastore

import "time"

// PostureEvent records one contiguous posture segment: the classifier held
// the same verdict from StartedAt for DurationSeconds.
type PostureEvent struct {
	ID              uint      `gorm:"primaryKey"`
	Posture         string    `gorm:"index:idx_posture_started"`
	StartedAt       time.Time `gorm:"index:idx_posture_started"`
	DurationSeconds int
	CreatedAt       time.Time
}

// AlertRecord records one raised posture alert.
type AlertRecord struct {
	ID              uint      `gorm:"primaryKey"`
	TriggeredAt     time.Time `gorm:"index"`
	DurationSeconds int
	Acknowledged    bool
	CreatedAt       time.Time
}

// DailyStats is the aggregate behind the dashboard statistics panel.
type DailyStats struct {
	Date               string `json:"date"`
	GoodSeconds        int    `json:"good_seconds"`
	BadSeconds         int    `json:"bad_seconds"`
	AlertCount         int    `json:"alert_count"`
	WorstStreakSeconds int    `json:"worst_streak_seconds"`
}

// GoodRatio returns the fraction of classified time spent in good posture.
func (s DailyStats) GoodRatio() float64 {
	total := s.GoodSeconds + s.BadSeconds
	if total == 0 {
		return 0
	}
	return float64(s.GoodSeconds) / float64(total)
}
