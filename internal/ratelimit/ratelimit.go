package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Window is a fixed request budget that resets on period boundaries
// (e.g. every quarter hour, every UTC day).
type Window struct {
	Limit  int
	Period time.Duration
}

type window struct {
	Window
	usage    int
	resetsAt time.Time
}

// Limiter enforces several windows plus a minimum spacing between requests
type Limiter struct {
	mu sync.Mutex

	windows     []*window
	minInterval time.Duration
	lastRequest time.Time

	now func() time.Time
}

// New creates a limiter with the given windows
func New(minInterval time.Duration, windows ...Window) *Limiter {
	l := &Limiter{
		minInterval: minInterval,
		now:         time.Now,
	}
	now := l.now()
	for _, w := range windows {
		l.windows = append(l.windows, &window{Window: w, resetsAt: nextBoundary(now, w.Period)})
	}
	return l
}

func nextBoundary(now time.Time, period time.Duration) time.Time {
	return now.Truncate(period).Add(period)
}

// Wait blocks until a request can be made without exceeding any window
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		now := l.now()
		var blockedUntil time.Time

		for _, w := range l.windows {
			if !now.Before(w.resetsAt) {
				w.usage = 0
				w.resetsAt = nextBoundary(now, w.Period)
			}
			if w.usage >= w.Limit && w.resetsAt.After(blockedUntil) {
				blockedUntil = w.resetsAt
			}
		}

		// Enforce minimum interval between requests
		if next := l.lastRequest.Add(l.minInterval); blockedUntil.IsZero() && now.Before(next) {
			blockedUntil = next
		}

		if blockedUntil.IsZero() {
			break
		}

		if err := l.sleep(ctx, blockedUntil.Sub(now)); err != nil {
			return err
		}
	}

	for _, w := range l.windows {
		w.usage++
	}
	l.lastRequest = l.now()

	return nil
}

// sleep releases the lock while waiting. Caller holds l.mu.
func (l *Limiter) sleep(ctx context.Context, d time.Duration) error {
	l.mu.Unlock()
	defer l.mu.Lock()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Observe overrides a window's usage and limit with values reported by the
// server. Negative values are ignored.
func (l *Limiter) Observe(i, usage, limit int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i < 0 || i >= len(l.windows) {
		return
	}
	if usage >= 0 {
		l.windows[i].usage = usage
	}
	if limit >= 0 {
		l.windows[i].Limit = limit
	}
}

// Remaining returns the requests left in each window
func (l *Limiter) Remaining() []int {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]int, len(l.windows))
	for i, w := range l.windows {
		out[i] = w.Limit - w.usage
	}
	return out
}
