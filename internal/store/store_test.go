package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestUpsertActivityRoundTrip(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	a := &Activity{
		ExternalID:      "garmin-1",
		Date:            day(2024, 1, 1),
		StartTime:       timePtr(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)),
		Source:          SourceImported,
		Provider:        "garmin",
		ActivityType:    "cycling",
		Name:            "Morning Ride",
		DurationMinutes: 45,
		DistanceKm:      floatPtr(20.5),
		AvgHR:           intPtr(130),
		AvgPower:        intPtr(180),
	}
	id, err := db.UpsertActivity(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, id, a.ID)

	got, err := db.GetActivity(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "garmin-1", got.ExternalID)
	assert.True(t, got.Date.Equal(day(2024, 1, 1)))
	require.NotNil(t, got.StartTime)
	assert.Equal(t, 8, got.StartTime.Hour())
	assert.Equal(t, 45.0, got.DurationMinutes)
	require.NotNil(t, got.AvgHR)
	assert.Equal(t, 130, *got.AvgHR)
	assert.Nil(t, got.MaxHR)
	assert.Nil(t, got.DaysSincePrevious)

	// Upserting the same external ID updates in place
	a.DurationMinutes = 50
	id2, err := db.UpsertActivity(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	count, err := db.CountActivities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err = db.GetActivityByExternalID(ctx, "garmin-1")
	require.NoError(t, err)
	assert.Equal(t, 50.0, got.DurationMinutes)
}

func TestInsertActivityDuplicate(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	a := &Activity{
		ExternalID:      "manual-abc",
		Date:            day(2024, 1, 5),
		Source:          SourceManual,
		Provider:        "manual",
		ActivityType:    "crossfit",
		DurationMinutes: 60,
	}
	_, err := db.InsertActivity(ctx, a)
	require.NoError(t, err)

	_, err = db.InsertActivity(ctx, a)
	assert.ErrorIs(t, err, ErrDuplicateActivity)

	got, err := db.GetActivity(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.StartTime)
}

func TestGetActivityNotFound(t *testing.T) {
	db := NewTestDB(t)

	_, err := db.GetActivity(context.Background(), 42)
	assert.ErrorIs(t, err, ErrActivityNotFound)

	err = db.DeleteActivity(context.Background(), 42)
	assert.ErrorIs(t, err, ErrActivityNotFound)
}

func TestActivityListings(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	insert := func(ext string, d time.Time, start *time.Time) {
		_, err := db.UpsertActivity(ctx, &Activity{
			ExternalID: ext, Date: d, StartTime: start,
			Source: SourceImported, Provider: "strava", ActivityType: "run", DurationMinutes: 30,
		})
		require.NoError(t, err)
	}

	insert("c", day(2024, 1, 3), nil)
	insert("a", day(2024, 1, 1), timePtr(time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)))
	insert("b", day(2024, 1, 1), timePtr(time.Date(2024, 1, 1, 7, 0, 0, 0, time.UTC)))

	all, err := db.AllActivities(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "a", "b"}, externalIDs(all), "insertion order")

	recent, err := db.ListActivities(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, externalIDs(recent), "newest first")

	between, err := db.ActivitiesBetween(ctx, day(2024, 1, 1), day(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, externalIDs(between))
}

func externalIDs(acts []Activity) []string {
	ids := make([]string, len(acts))
	for i, a := range acts {
		ids[i] = a.ExternalID
	}
	return ids
}

func TestUpsertDailyMetricsMerges(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	d := day(2024, 1, 2)

	require.NoError(t, db.UpsertDailyMetrics(ctx, &DailyMetrics{Date: d, RestingHR: intPtr(52), Steps: intPtr(9000)}))
	require.NoError(t, db.UpsertDailyMetrics(ctx, &DailyMetrics{Date: d, SleepHours: floatPtr(7.5)}))

	m, err := db.GetDailyMetrics(ctx, d)
	require.NoError(t, err)
	require.NotNil(t, m.RestingHR)
	assert.Equal(t, 52, *m.RestingHR)
	require.NotNil(t, m.Steps)
	assert.Equal(t, 9000, *m.Steps)
	require.NotNil(t, m.SleepHours)
	assert.Equal(t, 7.5, *m.SleepHours)
	assert.Nil(t, m.Stress)

	_, err = db.GetDailyMetrics(ctx, day(2024, 1, 3))
	assert.ErrorIs(t, err, ErrNoDailyMetrics)
}

func TestApplyDerived(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	a := &Activity{
		ExternalID: "x", Date: day(2024, 1, 3), Source: SourceImported,
		Provider: "garmin", ActivityType: "cycling", DurationMinutes: 45,
	}
	_, err := db.UpsertActivity(ctx, a)
	require.NoError(t, err)
	require.NoError(t, db.UpsertDailyMetrics(ctx, &DailyMetrics{Date: day(2024, 1, 3), Steps: intPtr(8000)}))

	a.ZoneClassification = ZoneZone2
	a.HoursSincePrevious = floatPtr(48)
	a.DaysSincePrevious = floatPtr(2)

	week := WeeklySummary{
		WeekStart:       day(2024, 1, 1),
		WeekEnd:         day(2024, 1, 7),
		TotalActivities: 1,
		Zone2Sessions:   1,
		AvgDailySteps:   floatPtr(8000),
		HitStepsTarget:  true,
		Targets: []TargetResult{
			{Name: "zone2", Passed: false},
			{Name: "steps", Passed: true},
		},
	}

	err = db.ApplyDerived(ctx, Derived{
		Activities: []Activity{*a},
		Daily: []DailyMetrics{
			{Date: day(2024, 1, 3), DaysSinceLastActivity: floatPtr(0.5), CurrentStreak: intPtr(2)},
			{Date: day(2024, 1, 4), DaysSinceLastActivity: floatPtr(1.5), CurrentStreak: intPtr(2)},
		},
		Weekly: []WeeklySummary{week},
		Trends: []FitnessTrend{{Date: day(2024, 1, 3), TRIMP: 60, CTL: 1.4, ATL: 8, TSB: -6.6}},
	})
	require.NoError(t, err)

	got, err := db.GetActivity(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, ZoneZone2, got.ZoneClassification)
	require.NotNil(t, got.DaysSincePrevious)
	assert.Equal(t, 2.0, *got.DaysSincePrevious)

	// Existing wellness data survives the derived write
	m, err := db.GetDailyMetrics(ctx, day(2024, 1, 3))
	require.NoError(t, err)
	require.NotNil(t, m.Steps)
	assert.Equal(t, 8000, *m.Steps)
	require.NotNil(t, m.CurrentStreak)
	assert.Equal(t, 2, *m.CurrentStreak)

	// Missing day row is created
	m, err = db.GetDailyMetrics(ctx, day(2024, 1, 4))
	require.NoError(t, err)
	assert.Nil(t, m.Steps)
	require.NotNil(t, m.DaysSinceLastActivity)
	assert.Equal(t, 1.5, *m.DaysSinceLastActivity)

	w, err := db.GetWeeklySummary(ctx, day(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, w.Zone2Sessions)
	assert.True(t, w.HitStepsTarget)
	assert.False(t, w.PerfectWeek)
	assert.Equal(t, week.Targets, w.Targets)
	assert.Nil(t, w.AvgRestingHR)

	trends, err := db.FitnessTrendsBetween(ctx, day(2024, 1, 1), day(2024, 1, 7))
	require.NoError(t, err)
	require.Len(t, trends, 1)
	assert.InDelta(t, -6.6, trends[0].TSB, 1e-9)

	// A second pass replaces summaries wholesale
	require.NoError(t, db.ApplyDerived(ctx, Derived{}))
	_, err = db.GetWeeklySummary(ctx, day(2024, 1, 1))
	assert.ErrorIs(t, err, ErrWeekNotFound)
}

func TestAuthPerProvider(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.GetAuth(ctx, "strava")
	assert.ErrorIs(t, err, ErrNoAuth)

	exp := time.Unix(1700000000, 0)
	require.NoError(t, db.SaveAuth(ctx, &Auth{Provider: "strava", AthleteID: 7, AccessToken: "a", RefreshToken: "r", ExpiresAt: exp}))
	require.NoError(t, db.UpdateTokens(ctx, "strava", "a2", "r2", exp.Add(time.Hour)))

	got, err := db.GetAuth(ctx, "strava")
	require.NoError(t, err)
	assert.Equal(t, "a2", got.AccessToken)
	assert.Equal(t, exp.Add(time.Hour).Unix(), got.ExpiresAt.Unix())

	assert.ErrorIs(t, db.UpdateTokens(ctx, "garmin", "x", "y", exp), ErrNoAuth)

	require.NoError(t, db.DeleteAuth(ctx, "strava"))
	_, err = db.GetAuth(ctx, "strava")
	assert.ErrorIs(t, err, ErrNoAuth)
}

func TestSyncTime(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	zero, err := db.GetSyncTime(ctx, SyncKeyStravaLast)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, db.SetSyncTime(ctx, SyncKeyStravaLast, ts))

	got, err := db.GetSyncTime(ctx, SyncKeyStravaLast)
	require.NoError(t, err)
	assert.True(t, ts.Equal(got))
}

func TestFindOverlapping(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, 2, 3, 7, 0, 0, 0, time.UTC)
	_, err := db.UpsertActivity(ctx, &Activity{
		ExternalID: "garmin-9", Date: day(2024, 2, 3), StartTime: timePtr(start),
		Source: SourceImported, Provider: "garmin", ActivityType: "running", DurationMinutes: 30,
	})
	require.NoError(t, err)

	got, err := db.FindOverlapping(ctx, "strava", start.Add(90*time.Second), 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "garmin-9", got.ExternalID)

	_, err = db.FindOverlapping(ctx, "garmin", start, 5*time.Minute)
	assert.ErrorIs(t, err, ErrActivityNotFound)

	_, err = db.FindOverlapping(ctx, "strava", start.Add(time.Hour), 5*time.Minute)
	assert.ErrorIs(t, err, ErrActivityNotFound)
}

func TestFindOverlappingIgnoresManualEntries(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	start := time.Date(2024, 2, 3, 8, 0, 0, 0, time.UTC)
	_, err := db.InsertActivity(ctx, &Activity{
		ExternalID: "manual-1", Date: day(2024, 2, 3), StartTime: timePtr(start),
		Source: SourceManual, Provider: "manual", ActivityType: "crossfit", DurationMinutes: 45,
	})
	require.NoError(t, err)

	_, err = db.FindOverlapping(ctx, "strava", start.Add(3*time.Minute), 5*time.Minute)
	assert.ErrorIs(t, err, ErrActivityNotFound)
}
