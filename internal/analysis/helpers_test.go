package analysis

import (
	"time"

	"longevity/internal/store"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// timed builds an imported activity starting at start
func timed(id, activityType string, start time.Time, minutes float64, hr *int) store.Activity {
	s := start
	return store.Activity{
		ExternalID:      id,
		Date:            DateOf(start),
		StartTime:       &s,
		Source:          store.SourceImported,
		Provider:        "garmin",
		ActivityType:    activityType,
		DurationMinutes: minutes,
		AvgHR:           hr,
	}
}

// manual builds a date-only manual entry
func manual(id string, d time.Time, minutes float64) store.Activity {
	return store.Activity{
		ExternalID:      id,
		Date:            d,
		Source:          store.SourceManual,
		Provider:        "manual",
		ActivityType:    "crossfit",
		DurationMinutes: minutes,
	}
}
