package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"longevity/internal/analysis"
	"longevity/internal/logging"
	"longevity/internal/service"
	"longevity/internal/store"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db := store.NewTestDB(t)
	engine := analysis.NewEngine(
		analysis.DefaultThresholds(),
		analysis.Targets{Zone2Sessions: 3, StrengthSessions: 2, StepsPerDay: 8000},
		analysis.DefaultZones(),
	)
	log := logging.NewNop()

	h := NewHandler(
		service.NewSyncService(db, engine, log),
		service.NewQueryService(db, engine),
		t.TempDir(),
		log,
	)
	return NewRouter(h, log)
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Data
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestStatusWithoutActivities(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	st := decodeData[service.StatusReport](t, w)
	assert.Nil(t, st.DaysSinceLast)
	assert.Equal(t, 0, st.CurrentStreak)
	assert.Equal(t, analysis.AlertNone, st.Alert)
}

func TestActivityLifecycle(t *testing.T) {
	r := newTestRouter(t)

	start := time.Now().Add(-time.Hour)
	w := do(t, r, http.MethodPost, "/api/activities", CreateActivityRequest{
		Date:            start.Format(dateLayout),
		StartTime:       start.Format(timestampLayout),
		ActivityType:    "Strength",
		Name:            "Deadlifts",
		DurationMinutes: 45,
		PerceivedEffort: intPtr(7),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decodeData[ActivityResponse](t, w)
	assert.NotZero(t, created.ID)
	assert.Contains(t, created.ExternalID, "manual-")
	assert.Equal(t, "manual", created.Provider)
	assert.Equal(t, "strength", created.ActivityType)
	assert.Equal(t, "strength", created.ZoneClassification)

	w = do(t, r, http.MethodGet, "/api/activities", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeData[[]ActivityResponse](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	w = do(t, r, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	st := decodeData[service.StatusReport](t, w)
	require.NotNil(t, st.DaysSinceLast)
	assert.Equal(t, analysis.AlertGreen, st.Alert)
	assert.Equal(t, 1, st.CurrentStreak)

	path := "/api/activities/" + strconv.FormatInt(created.ID, 10)
	w = do(t, r, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateActivityValidation(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing duration", map[string]any{"date": "2024-03-01"}},
		{"zero duration", map[string]any{"date": "2024-03-01", "duration_minutes": 0}},
		{"bad date", map[string]any{"date": "03/01/2024", "duration_minutes": 30}},
		{"bad start time", map[string]any{"date": "2024-03-01", "start_time": "noon", "duration_minutes": 30}},
		{"effort out of range", map[string]any{"date": "2024-03-01", "duration_minutes": 30, "perceived_effort": 11}},
		{"heart rate out of range", map[string]any{"date": "2024-03-01", "duration_minutes": 30, "avg_hr": 400}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/activities", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestGetActivityInvalidID(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/activities/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListQueryValidation(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{
		"/api/activities?limit=x",
		"/api/activities?offset=-1",
		"/api/daily-metrics?days=abc",
		"/api/weekly-summaries?weeks=-2",
		"/api/fitness-trends?days=z",
	} {
		w := do(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestCalendar(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/calendar/2024/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cal := decodeData[service.CalendarMonth](t, w)
	assert.Len(t, cal.Days, 29)

	w = do(t, r, http.MethodGet, "/api/calendar/2024/13", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/calendar/year/1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncWithoutProvidersRecomputes(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/activities", CreateActivityRequest{
		Date:            time.Now().AddDate(0, 0, -3).Format(dateLayout),
		ActivityType:    "run",
		DurationMinutes: 40,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, http.MethodPost, "/api/sync", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decodeData[SyncResponse](t, w)
	assert.Empty(t, resp.Errors)
	assert.Empty(t, resp.Rejected)
	require.NotNil(t, resp.Status)
	assert.Equal(t, analysis.AlertRed, resp.Status.Alert)
	assert.Equal(t, 0, resp.Status.CurrentStreak)

	w = do(t, r, http.MethodGet, "/api/weekly-summaries?weeks=4", nil)
	require.Equal(t, http.StatusOK, w.Code)
	weeks := decodeData[[]WeeklySummaryResponse](t, w)
	assert.NotEmpty(t, weeks)
}

func TestRecompute(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/recompute", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeData[RecomputeResponse](t, w)
	assert.Equal(t, 0, resp.Activities)
	assert.Empty(t, resp.Rejected)
	require.NotNil(t, resp.Status)
	assert.Equal(t, analysis.AlertNone, resp.Status.Alert)
}

func TestExport(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/export", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeData[map[string]string](t, w)
	dir := resp["directory"]
	require.NotEmpty(t, dir)
	for _, name := range []string{"activities.csv", "daily_metrics.csv", "weekly_summaries.csv"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t)

	do(t, r, http.MethodGet, "/health", nil)
	w := do(t, r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "longevity_http_requests_total")
}

func intPtr(v int) *int { return &v }
