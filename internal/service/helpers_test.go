package service

import (
	"context"
	"testing"
	"time"

	"longevity/internal/analysis"
	"longevity/internal/garmin"
	"longevity/internal/logging"
	"longevity/internal/store"
	"longevity/internal/strava"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Wednesday 2024-03-06 10:00
var testNow = time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)

func testEngine() *analysis.Engine {
	return analysis.NewEngine(
		analysis.DefaultThresholds(),
		analysis.Targets{Zone2Sessions: 1, StrengthSessions: 1, StepsPerDay: 8000},
		analysis.DefaultZones(),
	)
}

type testEnv struct {
	db    *store.DB
	sync  *SyncService
	query *QueryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := store.NewTestDB(t)
	engine := testEngine()

	s := NewSyncService(db, engine, logging.NewNop())
	s.now = func() time.Time { return testNow }

	q := NewQueryService(db, engine)
	q.now = func() time.Time { return testNow }

	return &testEnv{db: db, sync: s, query: q}
}

type fakeStrava struct {
	activities []strava.Activity
	err        error
	afters     []time.Time
}

func (f *fakeStrava) GetAllActivities(ctx context.Context, after time.Time, onProgress func(int)) ([]strava.Activity, error) {
	f.afters = append(f.afters, after)
	if onProgress != nil {
		onProgress(len(f.activities))
	}
	return f.activities, f.err
}

type fakeGarmin struct {
	steps      map[string]int
	failDates  map[string]bool
	activities []garmin.Activity
	listErr    error
}

func (f *fakeGarmin) GetDailySummary(ctx context.Context, date time.Time) (*garmin.DailySummary, error) {
	key := date.Format("2006-01-02")
	if f.failDates[key] {
		return nil, context.DeadlineExceeded
	}
	steps, ok := f.steps[key]
	if !ok {
		return nil, garmin.ErrNoData
	}
	return &garmin.DailySummary{CalendarDate: key, TotalSteps: &steps, RestingHeartRate: intPtr(55)}, nil
}

func (f *fakeGarmin) GetSleep(ctx context.Context, date time.Time) (*garmin.SleepData, error) {
	return nil, garmin.ErrNoData
}

func (f *fakeGarmin) GetHRV(ctx context.Context, date time.Time) (*garmin.HRVData, error) {
	return nil, garmin.ErrNoData
}

func (f *fakeGarmin) GetBodyComposition(ctx context.Context, date time.Time) (*garmin.BodyComposition, error) {
	return nil, garmin.ErrNoData
}

func (f *fakeGarmin) GetActivities(ctx context.Context, from, to time.Time) ([]garmin.Activity, error) {
	return f.activities, f.listErr
}

func garminActivity(id int64, typeKey string, start time.Time, minutes, hr float64) garmin.Activity {
	return garmin.Activity{
		ActivityID:     id,
		ActivityName:   typeKey,
		ActivityType:   garmin.ActivityType{TypeKey: typeKey},
		StartTimeLocal: garmin.LocalTime{Time: start},
		Duration:       minutes * 60,
		AverageHR:      &hr,
	}
}

func stravaActivity(id int64, sport string, start time.Time, minutes int, hr float64) strava.Activity {
	return strava.Activity{
		ID:               id,
		Name:             sport,
		Type:             sport,
		SportType:        sport,
		StartDateLocal:   start,
		MovingTime:       minutes * 60,
		AverageHeartrate: &hr,
		HasHeartrate:     true,
	}
}
