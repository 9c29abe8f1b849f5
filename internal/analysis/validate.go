package analysis

import (
	"errors"
	"fmt"

	"longevity/internal/store"
)

// ErrInvalidActivity marks an activity that violates basic shape invariants
var ErrInvalidActivity = errors.New("invalid activity")

// ErrInvalidDailyMetrics marks a wellness sample with out-of-range values
var ErrInvalidDailyMetrics = errors.New("invalid daily metrics")

// Rejection is a record skipped by a recompute pass
type Rejection struct {
	Record string
	Err    error
}

// ValidateActivity checks the invariants the engine relies on
func ValidateActivity(a store.Activity) error {
	switch {
	case a.Date.IsZero():
		return fmt.Errorf("%w: missing date", ErrInvalidActivity)
	case a.DurationMinutes <= 0:
		return fmt.Errorf("%w: duration %.1f min must be positive", ErrInvalidActivity, a.DurationMinutes)
	case a.Source != store.SourceImported && a.Source != store.SourceManual:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidActivity, a.Source)
	case a.AvgHR != nil && (*a.AvgHR <= 0 || *a.AvgHR > 250):
		return fmt.Errorf("%w: average HR %d out of range", ErrInvalidActivity, *a.AvgHR)
	}
	return nil
}

// ValidateDailyMetrics rejects samples a device could not have produced
func ValidateDailyMetrics(m store.DailyMetrics) error {
	switch {
	case m.Date.IsZero():
		return fmt.Errorf("%w: missing date", ErrInvalidDailyMetrics)
	case m.RestingHR != nil && (*m.RestingHR < 20 || *m.RestingHR > 200):
		return fmt.Errorf("%w: resting HR %d out of range", ErrInvalidDailyMetrics, *m.RestingHR)
	case m.Steps != nil && *m.Steps < 0:
		return fmt.Errorf("%w: negative steps", ErrInvalidDailyMetrics)
	case m.SleepHours != nil && (*m.SleepHours < 0 || *m.SleepHours > 24):
		return fmt.Errorf("%w: sleep %.1f h out of range", ErrInvalidDailyMetrics, *m.SleepHours)
	case m.Stress != nil && (*m.Stress < 0 || *m.Stress > 100):
		return fmt.Errorf("%w: stress %d out of range", ErrInvalidDailyMetrics, *m.Stress)
	case m.BodyBattery != nil && (*m.BodyBattery < 0 || *m.BodyBattery > 100):
		return fmt.Errorf("%w: body battery %d out of range", ErrInvalidDailyMetrics, *m.BodyBattery)
	}
	return nil
}

// PartitionActivities splits out activities that fail validation
func PartitionActivities(activities []store.Activity) ([]store.Activity, []Rejection) {
	valid := make([]store.Activity, 0, len(activities))
	var rejected []Rejection
	for _, a := range activities {
		if err := ValidateActivity(a); err != nil {
			rejected = append(rejected, Rejection{Record: "activity " + a.ExternalID, Err: err})
			continue
		}
		valid = append(valid, a)
	}
	return valid, rejected
}

// PartitionDailyMetrics splits out samples that fail validation
func PartitionDailyMetrics(daily []store.DailyMetrics) ([]store.DailyMetrics, []Rejection) {
	valid := make([]store.DailyMetrics, 0, len(daily))
	var rejected []Rejection
	for _, m := range daily {
		if err := ValidateDailyMetrics(m); err != nil {
			rejected = append(rejected, Rejection{Record: "daily " + m.Date.Format("2006-01-02"), Err: err})
			continue
		}
		valid = append(valid, m)
	}
	return valid, rejected
}
