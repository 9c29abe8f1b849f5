package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"longevity/internal/analysis"
	"longevity/internal/observability"
	"longevity/internal/store"
)

// Recompute rederives every zone, gap, daily status, weekly summary and
// training load from the stored history as of now and writes them in one
// transaction.
func (s *SyncService) Recompute(ctx context.Context) (*analysis.Result, error) {
	if !s.mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.mu.Unlock()

	return s.recompute(ctx)
}

// recompute is Recompute without locking. Caller holds s.mu.
func (s *SyncService) recompute(ctx context.Context) (*analysis.Result, error) {
	activities, err := s.store.AllActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}
	daily, err := s.store.AllDailyMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading daily metrics: %w", err)
	}

	now := analysis.WallClock(s.now())
	res := s.engine.Run(activities, daily, now)

	for _, r := range res.Rejected {
		s.log.Warn("skipping malformed record", zap.String("record", r.Record), zap.Error(r.Err))
	}
	countRejected(res.Rejected)

	if err := s.store.ApplyDerived(ctx, res.Derived); err != nil {
		return nil, fmt.Errorf("applying derived fields: %w", err)
	}
	if err := s.store.SetSyncTime(ctx, store.SyncKeyRecompute, s.now()); err != nil {
		return nil, err
	}

	observability.RecordStatus(res.Status.DaysSinceLast, res.Status.CurrentStreak)
	s.log.Debug("recomputed",
		zap.Int("activities", len(res.Activities)),
		zap.Int("weeks", len(res.Weekly)),
		zap.String("alert", string(res.Status.Alert)),
	)

	return &res, nil
}

func countRejected(rejected []analysis.Rejection) {
	var acts, days int
	for _, r := range rejected {
		if errors.Is(r.Err, analysis.ErrInvalidActivity) {
			acts++
		} else {
			days++
		}
	}
	observability.RecordRejected("activity", acts)
	observability.RecordRejected("daily", days)
}
