package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"longevity/internal/analysis"
	"longevity/internal/garmin"
	"longevity/internal/store"
	"longevity/internal/strava"
)

func TestSyncAllStoresAndRecomputes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := &fakeGarmin{
		steps: map[string]int{"2024-03-04": 9000, "2024-03-05": 7000, "2024-03-06": 3000},
		activities: []garmin.Activity{
			garminActivity(1, "cycling", time.Date(2024, 3, 4, 7, 0, 0, 0, time.UTC), 60, 130),
			garminActivity(2, "strength_training", time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC), 45, 110),
		},
	}
	s := &fakeStrava{activities: []strava.Activity{
		// mirror of the garmin ride
		stravaActivity(10, "Ride", time.Date(2024, 3, 4, 7, 1, 0, 0, time.UTC), 60, 131),
		stravaActivity(11, "Run", time.Date(2024, 3, 6, 8, 0, 0, 0, time.UTC), 30, 175),
	}}
	env.sync.WithGarmin(g, 3).WithStrava(s)

	progress := make(chan SyncProgress, 256)
	result, err := env.sync.SyncAll(ctx, progress)
	require.NoError(t, err)

	var phases []string
	for p := range progress {
		if len(phases) == 0 || phases[len(phases)-1] != p.Phase {
			phases = append(phases, p.Phase)
		}
	}
	assert.Equal(t, []string{"wellness", "garmin_activities", "strava_activities", "recompute"}, phases)

	assert.Empty(t, result.Errors)
	assert.Equal(t, 3, result.DaysSynced)
	assert.Equal(t, 4, result.ActivitiesFetched)
	assert.Equal(t, 3, result.ActivitiesStored)
	assert.Equal(t, 1, result.DuplicatesSkipped)
	assert.Equal(t, 3, result.Status.CurrentStreak)
	assert.Equal(t, analysis.AlertGreen, result.Status.Alert)

	ride, err := env.db.GetActivityByExternalID(ctx, "garmin-1")
	require.NoError(t, err)
	assert.Equal(t, store.ZoneZone2, ride.ZoneClassification)
	assert.Nil(t, ride.DaysSincePrevious)

	run, err := env.db.GetActivityByExternalID(ctx, "strava-11")
	require.NoError(t, err)
	assert.Equal(t, store.ZoneVO2Max, run.ZoneClassification)
	require.NotNil(t, run.HoursSincePrevious)
	assert.InDelta(t, 14.0, *run.HoursSincePrevious, 1e-9)

	_, err = env.db.GetActivityByExternalID(ctx, "strava-10")
	assert.ErrorIs(t, err, store.ErrActivityNotFound)

	week, err := env.db.GetWeeklySummary(ctx, day(2024, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, 3, week.TotalActivities)
	assert.Equal(t, 1, week.Zone2Sessions)
	assert.Equal(t, 1, week.StrengthSessions)
	assert.Equal(t, 1, week.VO2MaxSessions)
	require.NotNil(t, week.AvgDailySteps)
	assert.InDelta(t, 19000.0/3, *week.AvgDailySteps, 1e-9)

	today, err := env.db.GetDailyMetrics(ctx, day(2024, 3, 6))
	require.NoError(t, err)
	require.NotNil(t, today.DaysSinceLastActivity)
	assert.InDelta(t, 2.0/24, *today.DaysSinceLastActivity, 1e-9)
	require.NotNil(t, today.CurrentStreak)
	assert.Equal(t, 3, *today.CurrentStreak)

	watermark, err := env.db.GetSyncTime(ctx, store.SyncKeyStravaLast)
	require.NoError(t, err)
	assert.True(t, watermark.Equal(testNow))

	// A second sync passes the watermark and changes nothing
	again, err := env.sync.SyncAll(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Status.CurrentStreak)
	require.Len(t, s.afters, 2)
	assert.True(t, s.afters[1].Equal(testNow))

	count, err := env.db.CountActivities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSyncAllRecordsErrorsAndContinues(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g := &fakeGarmin{
		steps:     map[string]int{"2024-03-06": 4000},
		failDates: map[string]bool{"2024-03-05": true},
	}
	s := &fakeStrava{err: errors.New("API error 500")}
	env.sync.WithGarmin(g, 2).WithStrava(s)

	result, err := env.sync.SyncAll(ctx, nil)
	require.NoError(t, err)

	assert.Len(t, result.Errors, 2)
	assert.Equal(t, 1, result.DaysSynced)

	watermark, err := env.db.GetSyncTime(ctx, store.SyncKeyStravaLast)
	require.NoError(t, err)
	assert.True(t, watermark.IsZero())

	// recompute still ran
	recomputed, err := env.db.GetSyncTime(ctx, store.SyncKeyRecompute)
	require.NoError(t, err)
	assert.False(t, recomputed.IsZero())
}

func TestSyncAllRejectsConcurrentRun(t *testing.T) {
	env := newTestEnv(t)

	env.sync.mu.Lock()
	defer env.sync.mu.Unlock()

	_, err := env.sync.SyncAll(context.Background(), nil)
	assert.ErrorIs(t, err, ErrSyncInProgress)

	_, err = env.sync.Recompute(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)
}

func TestSyncAllCancelled(t *testing.T) {
	env := newTestEnv(t)
	env.sync.WithGarmin(&fakeGarmin{}, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.sync.SyncAll(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecomputeSkipsMalformedRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.db.UpsertDailyMetrics(ctx, &store.DailyMetrics{Date: day(2024, 3, 5), RestingHR: intPtr(500)}))
	_, err := env.db.UpsertActivity(ctx, &store.Activity{
		ExternalID: "garmin-5", Date: day(2024, 3, 5), Source: store.SourceImported,
		Provider: "garmin", ActivityType: "running", DurationMinutes: 30,
	})
	require.NoError(t, err)

	res, err := env.sync.Recompute(ctx)
	require.NoError(t, err)

	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "daily 2024-03-05", res.Rejected[0].Record)
	assert.ErrorIs(t, res.Rejected[0].Err, analysis.ErrInvalidDailyMetrics)
	assert.Equal(t, 1, res.Status.CurrentStreak)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i, d := range []int{1, 2, 4} {
		_, err := env.db.UpsertActivity(ctx, &store.Activity{
			ExternalID: "garmin-" + string(rune('a'+i)), Date: day(2024, 3, d), Source: store.SourceImported,
			Provider: "garmin", ActivityType: "cycling", DurationMinutes: 50, AvgHR: intPtr(125),
		})
		require.NoError(t, err)
	}

	first, err := env.sync.Recompute(ctx)
	require.NoError(t, err)
	weeks1, err := env.db.ListWeeklySummaries(ctx, 10)
	require.NoError(t, err)

	second, err := env.sync.Recompute(ctx)
	require.NoError(t, err)
	weeks2, err := env.db.ListWeeklySummaries(ctx, 10)
	require.NoError(t, err)

	assert.Equal(t, first.Activities, second.Activities)
	assert.Equal(t, weeks1, weeks2)
}

func TestSyncSkipsWearableActivityMirroredEarlierByStrava(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	start := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)

	// Strava connected first
	env.sync.WithStrava(&fakeStrava{activities: []strava.Activity{
		stravaActivity(1, "Ride", start, 60, 130),
	}})
	_, err := env.sync.SyncAll(ctx, nil)
	require.NoError(t, err)

	// The watch uploads the same ride later
	env.sync.WithGarmin(&fakeGarmin{activities: []garmin.Activity{
		garminActivity(7, "cycling", start, 60, 130),
	}}, 1)
	result, err := env.sync.SyncAll(ctx, nil)
	require.NoError(t, err)

	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, result.DuplicatesSkipped)
	assert.Equal(t, 1, result.Status.CurrentStreak)

	count, err := env.db.CountActivities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = env.db.GetActivityByExternalID(ctx, "garmin-7")
	assert.ErrorIs(t, err, store.ErrActivityNotFound)

	week, err := env.db.GetWeeklySummary(ctx, day(2024, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, 1, week.TotalActivities)
	assert.Equal(t, 1, week.Zone2Sessions)
}

func TestSyncKeepsImportedActivityNearManualEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	start := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)

	_, err := env.sync.AddManualActivity(ctx, ManualActivity{
		Date: start, StartTime: &start, ActivityType: "crossfit", DurationMinutes: 45,
	})
	require.NoError(t, err)

	env.sync.WithStrava(&fakeStrava{activities: []strava.Activity{
		stravaActivity(2, "Ride", start.Add(3*time.Minute), 60, 130),
	}})
	result, err := env.sync.SyncAll(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.DuplicatesSkipped)
	assert.Equal(t, 1, result.ActivitiesStored)

	count, err := env.db.CountActivities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	ride, err := env.db.GetActivityByExternalID(ctx, "strava-2")
	require.NoError(t, err)
	assert.Equal(t, store.ZoneZone2, ride.ZoneClassification)
}
