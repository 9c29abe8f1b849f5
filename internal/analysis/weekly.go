package analysis

import (
	"time"

	"longevity/internal/config"
	"longevity/internal/store"
)

// Target check names, in evaluation order
const (
	CheckZone2      = "zone2"
	CheckStrength   = "strength"
	CheckSteps      = "steps"
	CheckNoLongGaps = "no_long_gaps"
	CheckVO2Max     = "vo2max"
)

// Targets are the weekly goals
type Targets struct {
	Zone2Sessions    int
	StrengthSessions int
	StepsPerDay      int
	VO2MaxSessions   int // 0 disables the check
}

// TargetsFromConfig maps the targets config section
func TargetsFromConfig(c config.TargetsConfig) Targets {
	return Targets{
		Zone2Sessions:    c.Zone2Sessions,
		StrengthSessions: c.StrengthSessions,
		StepsPerDay:      c.StepsPerDay,
		VO2MaxSessions:   c.VO2MaxSessions,
	}
}

// TargetCheck is one named pass/fail rule over a computed week
type TargetCheck struct {
	Name   string
	Passed func(w *store.WeeklySummary) bool
}

// TargetChecks builds the configured check list. The four standard checks
// are always present; the VO2 max check only when its target is set.
func TargetChecks(t Targets, th Thresholds) []TargetCheck {
	checks := []TargetCheck{
		{Name: CheckZone2, Passed: func(w *store.WeeklySummary) bool {
			return w.Zone2Sessions >= t.Zone2Sessions
		}},
		{Name: CheckStrength, Passed: func(w *store.WeeklySummary) bool {
			return w.StrengthSessions >= t.StrengthSessions
		}},
		{Name: CheckSteps, Passed: func(w *store.WeeklySummary) bool {
			if t.StepsPerDay <= 0 {
				return true
			}
			return w.AvgDailySteps != nil && *w.AvgDailySteps >= float64(t.StepsPerDay)
		}},
		{Name: CheckNoLongGaps, Passed: func(w *store.WeeklySummary) bool {
			return w.LongestGapDays == nil || *w.LongestGapDays <= th.CriticalGapDays
		}},
	}
	if t.VO2MaxSessions > 0 {
		checks = append(checks, TargetCheck{Name: CheckVO2Max, Passed: func(w *store.WeeklySummary) bool {
			return w.VO2MaxSessions >= t.VO2MaxSessions
		}})
	}
	return checks
}

// WeekStart returns the Monday of the week containing date
func WeekStart(date time.Time) time.Time {
	d := DateOf(date)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// Aggregator folds activities and wellness samples into weekly summaries
type Aggregator struct {
	th     Thresholds
	checks []TargetCheck
	gaps   *GapEngine
}

// NewAggregator creates an aggregator evaluating the given checks
func NewAggregator(th Thresholds, checks []TargetCheck) *Aggregator {
	return &Aggregator{th: th, checks: checks, gaps: NewGapEngine(th)}
}

// Checks returns the configured target checks
func (ag *Aggregator) Checks() []TargetCheck {
	return ag.checks
}

// Summarize builds the summary for the week containing weekStart.
// activities must be the full classified history in chronological order
// with gaps computed; only those dated inside the week are counted, but the
// rest are needed for gaps that border the week.
func (ag *Aggregator) Summarize(weekStart time.Time, activities []store.Activity, daily []store.DailyMetrics, now time.Time) store.WeeklySummary {
	start := WeekStart(weekStart)
	end := start.AddDate(0, 0, 6)

	var inWeek []store.Activity
	for _, a := range activities {
		if inRange(a.Date, start, end) {
			inWeek = append(inWeek, a)
		}
	}
	var days []store.DailyMetrics
	for _, m := range daily {
		if inRange(m.Date, start, end) {
			days = append(days, m)
		}
	}

	return ag.summarize(start, inWeek, days, activities, now)
}

// SummarizeRange builds one summary per week from the week of from through
// the week of to, oldest first. Arguments follow Summarize.
func (ag *Aggregator) SummarizeRange(from, to time.Time, activities []store.Activity, daily []store.DailyMetrics, now time.Time) []store.WeeklySummary {
	first := WeekStart(from)
	last := WeekStart(to)
	if last.Before(first) {
		return nil
	}

	actsByWeek := make(map[string][]store.Activity)
	for _, a := range activities {
		key := weekKey(a.Date)
		actsByWeek[key] = append(actsByWeek[key], a)
	}
	dailyByWeek := make(map[string][]store.DailyMetrics)
	for _, m := range daily {
		key := weekKey(m.Date)
		dailyByWeek[key] = append(dailyByWeek[key], m)
	}

	var out []store.WeeklySummary
	for w := first; !w.After(last); w = w.AddDate(0, 0, 7) {
		key := weekKey(w)
		out = append(out, ag.summarize(w, actsByWeek[key], dailyByWeek[key], activities, now))
	}
	return out
}

func (ag *Aggregator) summarize(start time.Time, inWeek []store.Activity, days []store.DailyMetrics, all []store.Activity, now time.Time) store.WeeklySummary {
	end := start.AddDate(0, 0, 6)
	w := store.WeeklySummary{WeekStart: start, WeekEnd: end}

	activeDays := make(map[string]bool)
	var zone2HR []float64
	for _, a := range inWeek {
		// planned entries count once they happen
		if StartInstant(a).After(now) {
			continue
		}
		w.TotalActivities++
		activeDays[a.Date.Format("2006-01-02")] = true

		switch Zone(a.ZoneClassification) {
		case ZoneZone2:
			w.Zone2Sessions++
			w.Zone2TotalMinutes += a.DurationMinutes
			if a.AvgHR != nil {
				zone2HR = append(zone2HR, float64(*a.AvgHR))
			}
		case ZoneVO2Max:
			w.VO2MaxSessions++
		case ZoneStrength:
			w.StrengthSessions++
		default:
			w.OtherSessions++
		}

		// Gaps crossing into this week belong to the later activity
		if a.DaysSincePrevious != nil && (w.LongestGapDays == nil || *a.DaysSincePrevious > *w.LongestGapDays) {
			gap := *a.DaysSincePrevious
			w.LongestGapDays = &gap
		}
	}
	w.DaysWithActivity = len(activeDays)
	w.Zone2AvgHR = mean(zone2HR)

	w.AvgRestingHR = averageInt(days, func(m store.DailyMetrics) *int { return m.RestingHR })
	w.AvgHRV = averageFloat(days, func(m store.DailyMetrics) *float64 { return m.HRV })
	w.AvgStress = averageInt(days, func(m store.DailyMetrics) *int { return m.Stress })
	w.AvgBodyBattery = averageInt(days, func(m store.DailyMetrics) *int { return m.BodyBattery })
	w.AvgWeight = averageFloat(days, func(m store.DailyMetrics) *float64 { return m.Weight })
	w.AvgSleepHours = averageFloat(days, func(m store.DailyMetrics) *float64 { return m.SleepHours })
	w.AvgSleepScore = averageInt(days, func(m store.DailyMetrics) *int { return m.SleepScore })
	w.AvgDailySteps = averageInt(days, func(m store.DailyMetrics) *int { return m.Steps })

	for _, m := range days {
		if m.TrainingLoad == nil {
			continue
		}
		if w.TotalTrainingLoad == nil {
			w.TotalTrainingLoad = new(float64)
		}
		*w.TotalTrainingLoad += *m.TrainingLoad
	}

	w.MissedActivityDays = ag.missedDays(start, end, all, now)

	asOf := endOfDay(end)
	if now.Before(asOf) {
		asOf = now
	}
	w.ActivityStreakEnd = ag.gaps.statusSorted(all, asOf).CurrentStreak

	allPassed := len(ag.checks) > 0
	for _, c := range ag.checks {
		passed := c.Passed(&w)
		w.Targets = append(w.Targets, store.TargetResult{Name: c.Name, Passed: passed})
		allPassed = allPassed && passed

		switch c.Name {
		case CheckZone2:
			w.HitZone2Target = passed
		case CheckStrength:
			w.HitStrengthTarget = passed
		case CheckSteps:
			w.HitStepsTarget = passed
		case CheckNoLongGaps:
			w.NoLongGaps = passed
		}
	}

	w.PerfectWeek = allPassed && w.TotalActivities > 0 && w.MissedActivityDays == 0

	return w
}

// missedDays counts calendar days in [start, end] lying strictly between
// two consecutive activity dates whose gap exceeds the critical threshold.
// A gap still open at now counts up to, but not including, today.
func (ag *Aggregator) missedDays(start, end time.Time, sorted []store.Activity, now time.Time) int {
	missed := make(map[string]bool)

	mark := func(prev, next time.Time) {
		for d := DateOf(prev).AddDate(0, 0, 1); d.Before(DateOf(next)); d = d.AddDate(0, 0, 1) {
			if inRange(d, start, end) {
				missed[d.Format("2006-01-02")] = true
			}
		}
	}

	visible := 0
	for i, a := range sorted {
		if StartInstant(a).After(now) {
			break
		}
		visible = i + 1
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if daysBetween(StartInstant(prev), StartInstant(a)) > ag.th.CriticalGapDays {
			mark(prev.Date, a.Date)
		}
	}

	if visible > 0 {
		last := sorted[visible-1]
		if daysBetween(StartInstant(last), now) > ag.th.CriticalGapDays {
			mark(last.Date, now)
		}
	}

	return len(missed)
}

func weekKey(date time.Time) string {
	return WeekStart(date).Format("2006-01-02")
}

func inRange(d, start, end time.Time) bool {
	d = DateOf(d)
	return !d.Before(start) && !d.After(end)
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))
	return &avg
}

func averageInt(days []store.DailyMetrics, field func(store.DailyMetrics) *int) *float64 {
	var values []float64
	for _, m := range days {
		if v := field(m); v != nil {
			values = append(values, float64(*v))
		}
	}
	return mean(values)
}

func averageFloat(days []store.DailyMetrics, field func(store.DailyMetrics) *float64) *float64 {
	var values []float64
	for _, m := range days {
		if v := field(m); v != nil {
			values = append(values, *v)
		}
	}
	return mean(values)
}
