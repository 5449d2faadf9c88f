package datastore

import (
	"time"
)

// DailyStats aggregates posture segments and alerts for the calendar day
// containing the given time, in local time. This query backs the dashboard
// statistics panel and is expected to run behind the state stats cache.
func (store *SQLiteStore) DailyStats(day time.Time) (DailyStats, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	stats := DailyStats{Date: dayStart.Format("2006-01-02")}

	err := store.observe("daily_stats", func() error {
		type postureAgg struct {
			Posture string
			Total   int
			Worst   int
		}
		var rows []postureAgg
		err := store.DB.Model(&PostureEvent{}).
			Select("posture, sum(duration_seconds) as total, max(duration_seconds) as worst").
			Where("started_at >= ? AND started_at < ?", dayStart, dayEnd).
			Group("posture").
			Scan(&rows).Error
		if err != nil {
			return err
		}

		for _, row := range rows {
			switch row.Posture {
			case "good":
				stats.GoodSeconds = row.Total
			case "bad":
				stats.BadSeconds = row.Total
				stats.WorstStreakSeconds = row.Worst
			}
		}

		var alertCount int64
		err = store.DB.Model(&AlertRecord{}).
			Where("triggered_at >= ? AND triggered_at < ?", dayStart, dayEnd).
			Count(&alertCount).Error
		if err != nil {
			return err
		}
		stats.AlertCount = int(alertCount)
		return nil
	})

	return stats, err
}

// StatsMap renders DailyStats as the generic map carried through the state
// stats cache and the dashboard JSON.
func (s DailyStats) StatsMap() map[string]any {
	return map[string]any{
		"date":                 s.Date,
		"good_seconds":         s.GoodSeconds,
		"bad_seconds":          s.BadSeconds,
		"good_ratio":           s.GoodRatio(),
		"alert_count":          s.AlertCount,
		"worst_streak_seconds": s.WorstStreakSeconds,
	}
}
