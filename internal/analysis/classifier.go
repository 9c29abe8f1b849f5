package analysis

import (
	"strings"

	"longevity/internal/config"
	"longevity/internal/store"
)

// Zone is one of the four classification labels
type Zone string

const (
	ZoneZone2    Zone = store.ZoneZone2
	ZoneVO2Max   Zone = store.ZoneVO2Max
	ZoneStrength Zone = store.ZoneStrength
	ZoneOther    Zone = store.ZoneOther
)

var (
	strengthKeywords = []string{"strength", "weight", "crossfit", "gym", "training", "fitness"}
	cardioKeywords   = []string{"cycling", "running", "biking", "ride", "run"}
)

// Thresholds holds every tunable boundary used by the classifier and the
// gap engine. All bounds are inclusive.
type Thresholds struct {
	Zone2HRMin        int
	Zone2HRMax        int
	Zone2MinDuration  float64 // minutes
	VO2MaxHRMin       int
	VO2MaxDurationMin float64 // minutes
	VO2MaxDurationMax float64 // minutes
	YellowGapDays     float64
	CriticalGapDays   float64
}

// ThresholdsFromConfig maps the thresholds config section
func ThresholdsFromConfig(c config.ThresholdsConfig) Thresholds {
	return Thresholds{
		Zone2HRMin:        c.Zone2HRMin,
		Zone2HRMax:        c.Zone2HRMax,
		Zone2MinDuration:  c.Zone2MinDuration,
		VO2MaxHRMin:       c.VO2MaxHRMin,
		VO2MaxDurationMin: c.VO2MaxDurationMin,
		VO2MaxDurationMax: c.VO2MaxDurationMax,
		YellowGapDays:     c.YellowGapDays,
		CriticalGapDays:   c.CriticalGapDays,
	}
}

// DefaultThresholds returns the thresholds of the default config
func DefaultThresholds() Thresholds {
	return ThresholdsFromConfig(config.DefaultConfig().Thresholds)
}

// Classifier assigns a zone label to an activity
type Classifier struct {
	th Thresholds
}

// NewClassifier creates a classifier with the given thresholds
func NewClassifier(th Thresholds) *Classifier {
	return &Classifier{th: th}
}

// Classify returns the zone for one activity. The first matching rule wins:
// manual entries are strength, then strength-type labels, then cardio
// labels by duration and average HR, otherwise other.
func (c *Classifier) Classify(a store.Activity) Zone {
	if a.Source == store.SourceManual {
		return ZoneStrength
	}

	label := strings.ToLower(a.ActivityType)
	if containsAny(label, strengthKeywords) {
		return ZoneStrength
	}
	if !containsAny(label, cardioKeywords) || a.AvgHR == nil {
		return ZoneOther
	}

	hr := *a.AvgHR
	d := a.DurationMinutes

	if d >= c.th.Zone2MinDuration && hr >= c.th.Zone2HRMin && hr <= c.th.Zone2HRMax {
		return ZoneZone2
	}
	if d >= c.th.VO2MaxDurationMin && d <= c.th.VO2MaxDurationMax && hr >= c.th.VO2MaxHRMin {
		return ZoneVO2Max
	}
	return ZoneOther
}

// ClassifyAll sets ZoneClassification on every activity in place
func (c *Classifier) ClassifyAll(activities []store.Activity) {
	for i := range activities {
		activities[i].ZoneClassification = string(c.Classify(activities[i]))
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
