package analysis

import (
	"sort"
	"time"

	"longevity/internal/config"
	"longevity/internal/store"
)

// Engine runs the full derivation over a history: classification, gaps,
// daily status, weekly summaries and training load. It is pure; callers
// load the inputs and persist the result.
type Engine struct {
	Thresholds Thresholds
	Zones      HRZones
	Classifier *Classifier
	Gaps       *GapEngine
	Aggregator *Aggregator
}

// NewEngine wires the components with one set of thresholds
func NewEngine(th Thresholds, targets Targets, zones HRZones) *Engine {
	return &Engine{
		Thresholds: th,
		Zones:      zones,
		Classifier: NewClassifier(th),
		Gaps:       NewGapEngine(th),
		Aggregator: NewAggregator(th, TargetChecks(targets, th)),
	}
}

// NewEngineFromConfig builds an engine from a validated config
func NewEngineFromConfig(cfg *config.Config) *Engine {
	return NewEngine(
		ThresholdsFromConfig(cfg.Thresholds),
		TargetsFromConfig(cfg.Targets),
		ZonesFromConfig(cfg.Athlete),
	)
}

// Result is one recompute pass
type Result struct {
	store.Derived
	Status   ActivityStatus
	Rejected []Rejection
}

// Run derives everything from the given history as of now. now must be a
// wall-clock instant (see WallClock). Invalid records are skipped and listed
// in Result.Rejected. Running twice over the same input yields the same result.
func (e *Engine) Run(activities []store.Activity, daily []store.DailyMetrics, now time.Time) Result {
	valid, rejected := PartitionActivities(activities)
	validDaily, rejectedDaily := PartitionDailyMetrics(daily)
	rejected = append(rejected, rejectedDaily...)

	e.Classifier.ClassifyAll(valid)
	sorted := e.Gaps.ComputeGaps(valid)

	today := DateOf(now)

	var res Result
	res.Rejected = rejected
	res.Activities = sorted
	res.Status = e.Gaps.statusSorted(sorted, now)
	res.Daily = e.Gaps.DailyStatus(sorted, dailyDates(validDaily, today), now)

	if first, ok := earliestDate(sorted, validDaily); ok {
		res.Weekly = e.Aggregator.SummarizeRange(first, today, sorted, validDaily, now)
	}

	res.Trends = CalculateFitnessTrend(DailyLoads(sorted, e.Zones), today)

	return res
}

// dailyDates is every date with a wellness row plus today, ascending
func dailyDates(daily []store.DailyMetrics, today time.Time) []time.Time {
	seen := map[string]bool{today.Format("2006-01-02"): true}
	dates := []time.Time{today}
	for _, m := range daily {
		if m.Date.IsZero() {
			continue
		}
		key := m.Date.Format("2006-01-02")
		if !seen[key] {
			seen[key] = true
			dates = append(dates, DateOf(m.Date))
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func earliestDate(sorted []store.Activity, daily []store.DailyMetrics) (time.Time, bool) {
	var first time.Time
	found := false
	for _, a := range sorted {
		if !found || a.Date.Before(first) {
			first = a.Date
			found = true
		}
	}
	for _, m := range daily {
		if !found || m.Date.Before(first) {
			first = m.Date
			found = true
		}
	}
	return first, found
}
