package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"longevity/internal/analysis"
	"longevity/internal/store"
)

// ProviderManual marks entries typed in by the user
const ProviderManual = "manual"

// ManualActivity is a workout entered by hand
type ManualActivity struct {
	Date            time.Time
	StartTime       *time.Time // wall clock; nil for date-only entries
	ActivityType    string
	Name            string // workout name
	DurationMinutes float64
	DistanceKm      *float64
	AvgHR           *int
	PerceivedEffort *int // 1-10
	Notes           string
}

// AddManualActivity stores a manual entry under a fresh manual-<uuid> ID
// and recomputes derived fields so the new entry is visible at once.
func (s *SyncService) AddManualActivity(ctx context.Context, m ManualActivity) (*store.Activity, error) {
	if m.PerceivedEffort != nil && (*m.PerceivedEffort < 1 || *m.PerceivedEffort > 10) {
		return nil, fmt.Errorf("%w: perceived effort %d must be 1-10", analysis.ErrInvalidActivity, *m.PerceivedEffort)
	}

	a := &store.Activity{
		ExternalID:      ProviderManual + "-" + uuid.NewString(),
		Date:            analysis.DateOf(m.Date),
		Source:          store.SourceManual,
		Provider:        ProviderManual,
		ActivityType:    NormalizeActivityType(m.ActivityType),
		Name:            m.Name,
		DurationMinutes: m.DurationMinutes,
		DistanceKm:      m.DistanceKm,
		AvgHR:           m.AvgHR,
		PerceivedEffort: m.PerceivedEffort,
		Notes:           m.Notes,
	}
	if a.ActivityType == "" {
		a.ActivityType = "strength"
	}
	if m.StartTime != nil {
		start := analysis.WallClock(*m.StartTime)
		a.StartTime = &start
		a.Date = analysis.DateOf(start)
	}

	if err := analysis.ValidateActivity(*a); err != nil {
		return nil, err
	}

	if _, err := s.store.InsertActivity(ctx, a); err != nil {
		return nil, err
	}

	if err := s.recomputeBlocking(ctx); err != nil {
		return a, err
	}

	return s.store.GetActivity(ctx, a.ID)
}

// DeleteActivity removes an activity and recomputes its neighbours' gaps
func (s *SyncService) DeleteActivity(ctx context.Context, id int64) error {
	if err := s.store.DeleteActivity(ctx, id); err != nil {
		return err
	}
	return s.recomputeBlocking(ctx)
}

// recomputeBlocking waits for a running sync instead of failing
func (s *SyncService) recomputeBlocking(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.recompute(ctx)
	return err
}
