package analysis

import (
	"slices"
	"sort"
	"time"

	"longevity/internal/store"
)

// Date-only activities are placed at midday so their gaps to timed
// activities on neighbouring days stay symmetric.
const middayHour = 12

// AlertLevel is the traffic-light state derived from days since last activity
type AlertLevel string

const (
	AlertNone   AlertLevel = "none" // no activity recorded yet
	AlertGreen  AlertLevel = "green"
	AlertYellow AlertLevel = "yellow"
	AlertRed    AlertLevel = "red"
)

// ActivityStatus is the gap and streak state as of a reference instant.
// DaysSinceLast is nil when no activity is visible at that instant.
type ActivityStatus struct {
	AsOf          time.Time
	DaysSinceLast *float64
	CurrentStreak int
	Alert         AlertLevel
	LastActivity  *store.Activity
}

// StartInstant returns the instant an activity is ordered by: its start
// time, or midday of its date when the time of day is unknown.
func StartInstant(a store.Activity) time.Time {
	if a.StartTime != nil {
		return *a.StartTime
	}
	y, m, d := a.Date.Date()
	return time.Date(y, m, d, middayHour, 0, 0, 0, time.UTC)
}

// WallClock relabels t's local wall-clock reading as UTC, the convention
// start times are stored in.
func WallClock(t time.Time) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	return time.Date(y, m, d, hh, mm, ss, t.Nanosecond(), time.UTC)
}

// DateOf truncates a wall-clock instant to its calendar date
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func endOfDay(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, time.UTC)
}

func daysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

// SortChronological returns a copy ordered by start instant. Ties keep
// their input order.
func SortChronological(activities []store.Activity) []store.Activity {
	sorted := slices.Clone(activities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return StartInstant(sorted[i]).Before(StartInstant(sorted[j]))
	})
	return sorted
}

// GapEngine derives gaps, streaks and alert levels from an activity history
type GapEngine struct {
	th Thresholds
}

// NewGapEngine creates a gap engine with the given thresholds
func NewGapEngine(th Thresholds) *GapEngine {
	return &GapEngine{th: th}
}

// ComputeGaps returns the activities in chronological order with
// HoursSincePrevious and DaysSincePrevious set from scratch. The earliest
// activity gets nil for both. The input slice is not modified.
func (e *GapEngine) ComputeGaps(activities []store.Activity) []store.Activity {
	sorted := SortChronological(activities)

	for i := range sorted {
		if i == 0 {
			sorted[i].HoursSincePrevious = nil
			sorted[i].DaysSincePrevious = nil
			continue
		}
		delta := StartInstant(sorted[i]).Sub(StartInstant(sorted[i-1]))
		hours := delta.Hours()
		days := hours / 24
		sorted[i].HoursSincePrevious = &hours
		sorted[i].DaysSincePrevious = &days
	}

	return sorted
}

// Status returns days since the last activity and the current streak as of
// now. Activities starting after now are ignored.
func (e *GapEngine) Status(activities []store.Activity, now time.Time) ActivityStatus {
	return e.statusSorted(SortChronological(activities), now)
}

// statusSorted expects activities in chronological order
func (e *GapEngine) statusSorted(sorted []store.Activity, now time.Time) ActivityStatus {
	status := ActivityStatus{AsOf: now, Alert: AlertNone}

	visible := sort.Search(len(sorted), func(i int) bool {
		return StartInstant(sorted[i]).After(now)
	})
	if visible == 0 {
		return status
	}

	last := sorted[visible-1]
	days := daysBetween(StartInstant(last), now)
	status.DaysSinceLast = &days
	status.LastActivity = &last
	status.Alert = e.AlertLevel(status.DaysSinceLast)

	// The break is already observable at now
	if days > e.th.CriticalGapDays {
		return status
	}

	streak := 1
	for i := visible - 1; i > 0; i-- {
		gap := daysBetween(StartInstant(sorted[i-1]), StartInstant(sorted[i]))
		if gap > e.th.CriticalGapDays {
			break
		}
		streak++
	}
	status.CurrentStreak = streak

	return status
}

// DailyStatus computes the derived wellness fields for each date, evaluated
// at the end of that date or at now, whichever is earlier.
func (e *GapEngine) DailyStatus(activities []store.Activity, dates []time.Time, now time.Time) []store.DailyMetrics {
	sorted := SortChronological(activities)

	out := make([]store.DailyMetrics, 0, len(dates))
	for _, date := range dates {
		asOf := endOfDay(date)
		if now.Before(asOf) {
			asOf = now
		}
		st := e.statusSorted(sorted, asOf)
		streak := st.CurrentStreak
		out = append(out, store.DailyMetrics{
			Date:                  DateOf(date),
			DaysSinceLastActivity: st.DaysSinceLast,
			CurrentStreak:         &streak,
		})
	}
	return out
}

// AlertLevel maps days since last activity to a traffic light.
// Below yellow is green, below critical is yellow, anything else is red.
func (e *GapEngine) AlertLevel(daysSince *float64) AlertLevel {
	switch {
	case daysSince == nil:
		return AlertNone
	case *daysSince < e.th.YellowGapDays:
		return AlertGreen
	case *daysSince < e.th.CriticalGapDays:
		return AlertYellow
	default:
		return AlertRed
	}
}
