package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitCountsAgainstEveryWindow(t *testing.T) {
	l := New(0, Window{Limit: 10, Period: time.Hour}, Window{Limit: 100, Period: 24 * time.Hour})

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}

	assert.Equal(t, []int{7, 97}, l.Remaining())
}

func TestWaitHonoursContextWhenExhausted(t *testing.T) {
	l := New(0, Window{Limit: 1, Period: time.Hour})
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWindowResetsAtBoundary(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 14, 0, 0, time.UTC)
	l := New(0, Window{Limit: 1, Period: 15 * time.Minute})
	l.now = func() time.Time { return now }
	l.windows[0].resetsAt = nextBoundary(now, 15*time.Minute)

	require.NoError(t, l.Wait(context.Background()))
	assert.Equal(t, []int{0}, l.Remaining())

	now = now.Add(time.Minute)
	require.NoError(t, l.Wait(context.Background()))
	assert.Equal(t, []int{0}, l.Remaining())
	assert.Equal(t, time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC), l.windows[0].resetsAt)
}

func TestMinInterval(t *testing.T) {
	l := New(30 * time.Millisecond)

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	require.NoError(t, l.Wait(context.Background()))

	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestObserve(t *testing.T) {
	l := New(0, Window{Limit: 100, Period: 15 * time.Minute}, Window{Limit: 1000, Period: 24 * time.Hour})

	l.Observe(0, 34, 200)
	l.Observe(1, 512, -1)
	l.Observe(5, 1, 1)

	assert.Equal(t, []int{166, 488}, l.Remaining())
}
