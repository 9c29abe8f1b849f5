package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"longevity/internal/analysis"
	"longevity/internal/garmin"
	"longevity/internal/logging"
	"longevity/internal/observability"
	"longevity/internal/store"
	"longevity/internal/strava"
)

// ErrSyncInProgress is returned when a sync or recompute is already running
var ErrSyncInProgress = errors.New("sync already in progress")

// duplicateWindow is how close two providers' start times must be to count
// as the same workout
const duplicateWindow = 5 * time.Minute

// StravaSource lists Strava activities
type StravaSource interface {
	GetAllActivities(ctx context.Context, after time.Time, onProgress func(fetched int)) ([]strava.Activity, error)
}

// WellnessSource reads daily wellness data and activities from the wearable
type WellnessSource interface {
	GetDailySummary(ctx context.Context, date time.Time) (*garmin.DailySummary, error)
	GetSleep(ctx context.Context, date time.Time) (*garmin.SleepData, error)
	GetHRV(ctx context.Context, date time.Time) (*garmin.HRVData, error)
	GetBodyComposition(ctx context.Context, date time.Time) (*garmin.BodyComposition, error)
	GetActivities(ctx context.Context, from, to time.Time) ([]garmin.Activity, error)
}

// SyncService orchestrates syncing from the providers and recomputing
// derived fields. It is the only writer of derived fields.
type SyncService struct {
	store  *store.DB
	engine *analysis.Engine
	log    *logging.Logger

	strava StravaSource
	garmin WellnessSource
	days   int

	mu  sync.Mutex
	now func() time.Time
}

// NewSyncService creates a sync service. Providers are attached with
// WithStrava and WithGarmin; without any, SyncAll only recomputes.
func NewSyncService(db *store.DB, engine *analysis.Engine, log *logging.Logger) *SyncService {
	return &SyncService{
		store:  db,
		engine: engine,
		log:    log.Named("sync"),
		days:   30,
		now:    time.Now,
	}
}

// WithStrava enables the Strava phase
func (s *SyncService) WithStrava(src StravaSource) *SyncService {
	s.strava = src
	return s
}

// WithGarmin enables the wellness and wearable activity phases over the
// last days days
func (s *SyncService) WithGarmin(src WellnessSource, days int) *SyncService {
	s.garmin = src
	if days > 0 {
		s.days = days
	}
	return s
}

// Sources lists the enabled providers in sync order
func (s *SyncService) Sources() []string {
	var out []string
	if s.garmin != nil {
		out = append(out, ProviderGarmin)
	}
	if s.strava != nil {
		out = append(out, ProviderStrava)
	}
	return out
}

// SyncProgress reports progress during sync
type SyncProgress struct {
	Phase     string // "wellness", "garmin_activities", "strava_activities", "recompute"
	Total     int
	Completed int
	Current   string
}

// SyncResult contains the results of a sync operation
type SyncResult struct {
	DaysSynced        int
	ActivitiesFetched int
	ActivitiesStored  int
	DuplicatesSkipped int
	Rejected          []analysis.Rejection
	Status            analysis.ActivityStatus
	Errors            []error
}

// SyncAll runs wellness -> wearable activities -> Strava activities ->
// recompute. A failing record or provider is recorded in Errors and the
// remaining phases still run. Only cancellation aborts.
func (s *SyncService) SyncAll(ctx context.Context, progress chan<- SyncProgress) (*SyncResult, error) {
	if progress != nil {
		defer close(progress)
	}

	if !s.mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.mu.Unlock()

	started := s.now()
	result := &SyncResult{}

	phases := []struct {
		name    string
		enabled bool
		run     func(context.Context, chan<- SyncProgress, *SyncResult) error
	}{
		{"wellness", s.garmin != nil, s.syncWellness},
		{"garmin_activities", s.garmin != nil, s.syncGarminActivities},
		{"strava_activities", s.strava != nil, s.syncStravaActivities},
	}

	for _, p := range phases {
		if !p.enabled {
			continue
		}
		if err := p.run(ctx, progress, result); err != nil {
			if ctx.Err() != nil {
				observability.RecordSyncRun("failed", time.Time{})
				return result, fmt.Errorf("%s: %w", p.name, err)
			}
			s.log.Warn("phase failed", zap.String("phase", p.name), zap.Error(err))
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", p.name, err))
		}
	}

	send(progress, SyncProgress{Phase: "recompute"})
	res, err := s.recompute(ctx)
	if err != nil {
		observability.RecordSyncRun("failed", time.Time{})
		return result, fmt.Errorf("recomputing: %w", err)
	}
	result.Rejected = res.Rejected
	result.Status = res.Status
	send(progress, SyncProgress{Phase: "recompute", Total: 1, Completed: 1})

	outcome := "ok"
	if len(result.Errors) > 0 {
		outcome = "partial"
	}
	observability.RecordSyncRun(outcome, s.now())

	s.log.Info("sync finished",
		zap.String("outcome", outcome),
		zap.Int("days", result.DaysSynced),
		zap.Int("activities_stored", result.ActivitiesStored),
		zap.Int("duplicates", result.DuplicatesSkipped),
		zap.Int("rejected", len(result.Rejected)),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("took", s.now().Sub(started)),
	)

	return result, nil
}

// syncWellness fetches the daily reports for the sync window, newest first
func (s *SyncService) syncWellness(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	today := analysis.DateOf(analysis.WallClock(s.now()))
	send(progress, SyncProgress{Phase: "wellness", Total: s.days})

	for i := 0; i < s.days; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		date := today.AddDate(0, 0, -i)
		label := date.Format("2006-01-02")
		send(progress, SyncProgress{Phase: "wellness", Total: s.days, Completed: i, Current: label})

		day, errs := s.fetchWellness(ctx, date)
		for _, err := range errs {
			observability.RecordSyncError(ProviderGarmin)
			result.Errors = append(result.Errors, fmt.Errorf("wellness %s: %w", label, err))
		}
		if day.empty() {
			continue
		}

		if err := s.store.UpsertDailyMetrics(ctx, convertWellness(date, day)); err != nil {
			observability.RecordSyncError(ProviderGarmin)
			result.Errors = append(result.Errors, err)
			continue
		}
		result.DaysSynced++
	}

	observability.RecordSynced(ProviderGarmin, "daily", result.DaysSynced)
	send(progress, SyncProgress{Phase: "wellness", Total: s.days, Completed: s.days})
	return s.store.SetSyncTime(ctx, store.SyncKeyGarminLast, s.now())
}

// fetchWellness calls every wellness endpoint for date. A report that is
// missing for the day is not an error.
func (s *SyncService) fetchWellness(ctx context.Context, date time.Time) (wellnessDay, []error) {
	var day wellnessDay
	var errs []error

	keep := func(err error) bool {
		if err == nil {
			return true
		}
		if !errors.Is(err, garmin.ErrNoData) {
			errs = append(errs, err)
		}
		return false
	}

	if v, err := s.garmin.GetDailySummary(ctx, date); keep(err) {
		day.Summary = v
	}
	if v, err := s.garmin.GetSleep(ctx, date); keep(err) {
		day.Sleep = v
	}
	if v, err := s.garmin.GetHRV(ctx, date); keep(err) {
		day.HRV = v
	}
	if v, err := s.garmin.GetBodyComposition(ctx, date); keep(err) {
		day.Body = v
	}

	return day, errs
}

func (s *SyncService) syncGarminActivities(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	today := analysis.DateOf(analysis.WallClock(s.now()))
	from := today.AddDate(0, 0, -(s.days - 1))

	send(progress, SyncProgress{Phase: "garmin_activities"})

	activities, err := s.garmin.GetActivities(ctx, from, today)
	if err != nil && len(activities) == 0 {
		return fmt.Errorf("fetching activities: %w", err)
	}
	if err != nil {
		result.Errors = append(result.Errors, err)
	}

	result.ActivitiesFetched += len(activities)
	stored := 0

	for i, a := range activities {
		send(progress, SyncProgress{Phase: "garmin_activities", Total: len(activities), Completed: i, Current: a.ActivityName})

		activity := convertGarminActivity(a)
		if s.isMirrored(ctx, activity, result) {
			continue
		}

		if _, err := s.store.UpsertActivity(ctx, activity); err != nil {
			observability.RecordSyncError(ProviderGarmin)
			result.Errors = append(result.Errors, err)
			continue
		}
		stored++
	}

	result.ActivitiesStored += stored
	observability.RecordSynced(ProviderGarmin, "activity", stored)
	send(progress, SyncProgress{Phase: "garmin_activities", Total: len(activities), Completed: len(activities)})
	return nil
}

// isMirrored reports whether activity was already stored by another provider.
// Lookup failures are recorded and also skip the activity.
func (s *SyncService) isMirrored(ctx context.Context, activity *store.Activity, result *SyncResult) bool {
	if activity.StartTime == nil {
		return false
	}

	dup, err := s.store.FindOverlapping(ctx, activity.Provider, *activity.StartTime, duplicateWindow)
	switch {
	case err == nil:
		s.log.Debug("skipping mirrored activity",
			zap.String("external_id", activity.ExternalID),
			zap.String("duplicate_of", dup.ExternalID))
		result.DuplicatesSkipped++
		return true
	case errors.Is(err, store.ErrActivityNotFound):
		return false
	default:
		result.Errors = append(result.Errors, err)
		return true
	}
}

// syncStravaActivities fetches activities since the last Strava sync
func (s *SyncService) syncStravaActivities(ctx context.Context, progress chan<- SyncProgress, result *SyncResult) error {
	after, err := s.store.GetSyncTime(ctx, store.SyncKeyStravaLast)
	if err != nil {
		s.log.Warn("ignoring unreadable strava watermark", zap.Error(err))
		after = time.Time{}
	}
	started := s.now()

	send(progress, SyncProgress{Phase: "strava_activities"})

	activities, err := s.strava.GetAllActivities(ctx, after, func(fetched int) {
		send(progress, SyncProgress{Phase: "strava_activities", Total: fetched})
	})
	if err != nil && len(activities) == 0 {
		return fmt.Errorf("fetching activities: %w", err)
	}
	complete := err == nil
	if err != nil {
		result.Errors = append(result.Errors, err)
	}

	result.ActivitiesFetched += len(activities)
	stored := 0

	for i, a := range activities {
		send(progress, SyncProgress{Phase: "strava_activities", Total: len(activities), Completed: i, Current: a.Name})

		activity := convertStravaActivity(a)
		if s.isMirrored(ctx, activity, result) {
			continue
		}

		if _, err := s.store.UpsertActivity(ctx, activity); err != nil {
			observability.RecordSyncError(ProviderStrava)
			result.Errors = append(result.Errors, err)
			continue
		}
		stored++
	}

	result.ActivitiesStored += stored
	observability.RecordSynced(ProviderStrava, "activity", stored)
	send(progress, SyncProgress{Phase: "strava_activities", Total: len(activities), Completed: len(activities)})

	// A partial listing leaves the watermark alone so the gap is refetched
	if !complete {
		return nil
	}
	return s.store.SetSyncTime(ctx, store.SyncKeyStravaLast, started)
}

func send(progress chan<- SyncProgress, p SyncProgress) {
	if progress != nil {
		progress <- p
	}
}
