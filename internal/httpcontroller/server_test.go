package httpcontroller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/conf"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/datastore"
	"github.com/EmekaOkaforTech/deskpulse-sub008/internal/events"
)

type stubStore struct {
	mu       sync.Mutex
	segments []datastore.PostureEvent
	alerts   []datastore.AlertRecord
	daily    datastore.DailyStats
	queryErr error
}

func (s *stubStore) Open() error                                    { return nil }
func (s *stubStore) Close() error                                   { return nil }
func (s *stubStore) SavePostureEvent(*datastore.PostureEvent) error { return nil }
func (s *stubStore) SaveAlert(*datastore.AlertRecord) error         { return nil }

func (s *stubStore) RecentPostureEvents(limit int) ([]datastore.PostureEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if limit > len(s.segments) {
		limit = len(s.segments)
	}
	return s.segments[:limit], nil
}

func (s *stubStore) RecentAlerts(limit int) ([]datastore.AlertRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if limit > len(s.alerts) {
		limit = len(s.alerts)
	}
	return s.alerts[:limit], nil
}

func (s *stubStore) DailyStats(time.Time) (datastore.DailyStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queryErr != nil {
		return datastore.DailyStats{}, s.queryErr
	}
	return s.daily, nil
}

func testController(t *testing.T, store datastore.Interface) *Controller {
	t.Helper()

	settings := &conf.Settings{}
	settings.Dashboard.Enabled = true
	settings.Dashboard.Listen = "127.0.0.1:0"

	registry := events.NewCallbackRegistry()
	state := events.NewMonitorState(events.DefaultStateConfig(), registry)
	queue := events.NewPriorityQueue(events.QueueConfig{Capacity: 10})

	c, err := New(settings, state, store, queue, nil)
	require.NoError(t, err)
	return c
}

func doRequest(c *Controller, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	rec := httptest.NewRecorder()
	c.Echo.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestNewRequiresStateAndQueue(t *testing.T) {
	settings := &conf.Settings{}
	_, err := New(settings, nil, nil, nil, nil)
	assert.Error(t, err)

	_, err = New(nil, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	c := testController(t, nil)
	rec := doRequest(c, http.MethodGet, "/healthz")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(0), body["queue_depth"])
}

func TestGetStatus(t *testing.T) {
	c := testController(t, nil)
	rec := doRequest(c, http.MethodGet, "/api/v1/status")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["monitoring_active"])
	assert.Equal(t, float64(600), body["threshold_seconds"])
	assert.Contains(t, body, "queue")
}

func TestPauseAndResume(t *testing.T) {
	c := testController(t, nil)

	rec := doRequest(c, http.MethodPost, "/api/v1/monitor/pause")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["monitoring_active"])

	// Pause is idempotent.
	rec = doRequest(c, http.MethodPost, "/api/v1/monitor/pause")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(c, http.MethodPost, "/api/v1/monitor/resume")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["monitoring_active"])
}

func TestGetStatsUsesStore(t *testing.T) {
	store := &stubStore{daily: datastore.DailyStats{
		GoodSeconds: 5400,
		BadSeconds:  600,
		AlertCount:  2,
	}}
	c := testController(t, store)

	rec := doRequest(c, http.MethodGet, "/api/v1/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(5400), body["good_seconds"])
	assert.Equal(t, float64(2), body["alert_count"])
}

func TestGetStatsErrorSurfacesAs500(t *testing.T) {
	store := &stubStore{queryErr: fmt.Errorf("database locked")}
	c := testController(t, store)

	rec := doRequest(c, http.MethodGet, "/api/v1/stats")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decodeBody(t, rec), "error")
}

func TestGetRecentEvents(t *testing.T) {
	store := &stubStore{
		segments: []datastore.PostureEvent{
			{ID: 1, Posture: "bad", DurationSeconds: 700},
			{ID: 2, Posture: "good", DurationSeconds: 300},
		},
		alerts: []datastore.AlertRecord{{ID: 1, DurationSeconds: 700}},
	}
	c := testController(t, store)

	rec := doRequest(c, http.MethodGet, "/api/v1/events/recent?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["posture_events"], 1)
	assert.Len(t, body["alerts"], 1)
}

func TestGetRecentEventsRejectsBadLimit(t *testing.T) {
	c := testController(t, &stubStore{})
	rec := doRequest(c, http.MethodGet, "/api/v1/events/recent?limit=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPILogPathDerivation(t *testing.T) {
	assert.Equal(t, "deskpulse-api.log", apiLogPath("deskpulse.log"))
	assert.Equal(t, "/var/log/dp-api.log", apiLogPath("/var/log/dp.log"))
	assert.Equal(t, "deskpulse-api.log", apiLogPath("deskpulse"))
}

func TestAPIFileLoggerWrittenAndClosed(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "deskpulse.log")

	settings := &conf.Settings{}
	settings.Main.Log.Enabled = true
	settings.Main.Log.Path = logPath
	settings.Dashboard.Listen = "127.0.0.1:0"

	registry := events.NewCallbackRegistry()
	state := events.NewMonitorState(events.DefaultStateConfig(), registry)
	queue := events.NewPriorityQueue(events.QueueConfig{Capacity: 10})

	c, err := New(settings, state, nil, queue, nil)
	require.NoError(t, err)
	require.NotNil(t, c.loggerClose)

	rec := doRequest(c, http.MethodPost, "/api/v1/monitor/pause")
	require.Equal(t, http.StatusOK, rec.Code)
	c.logger.Info("dashboard smoke check complete")

	require.NoError(t, c.Shutdown(time.Second))

	content, err := os.ReadFile(apiLogPath(logPath))
	require.NoError(t, err)
	assert.Contains(t, string(content), "httpcontroller")
}

func TestRecentEventsWithoutStore(t *testing.T) {
	c := testController(t, nil)
	rec := doRequest(c, http.MethodGet, "/api/v1/events/recent")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Empty(t, body["posture_events"])
	assert.Empty(t, body["alerts"])
}
