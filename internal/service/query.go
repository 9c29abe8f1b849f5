package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"longevity/internal/analysis"
	"longevity/internal/store"
)

// QueryService provides read-only queries for the TUI, the API and the CLI.
// Status and the dashboard are derived live at call time so they reflect
// "now", not the last recompute.
type QueryService struct {
	store  *store.DB
	engine *analysis.Engine
	now    func() time.Time
}

// NewQueryService creates a new query service
func NewQueryService(db *store.DB, engine *analysis.Engine) *QueryService {
	return &QueryService{store: db, engine: engine, now: time.Now}
}

// StatusReport is the answer to "how long since I last trained"
type StatusReport struct {
	AsOf             time.Time           `json:"as_of"`
	DaysSinceLast    *float64            `json:"days_since_last_activity"`
	CurrentStreak    int                 `json:"current_streak"`
	Alert            analysis.AlertLevel `json:"alert_level"`
	LastActivityDate *time.Time          `json:"last_activity_date,omitempty"`
	LastActivityType string              `json:"last_activity_type,omitempty"`
	LastActivityName string              `json:"last_activity_name,omitempty"`
}

// Status computes days since the last activity, streak and alert level
func (q *QueryService) Status(ctx context.Context) (*StatusReport, error) {
	activities, err := q.validActivities(ctx)
	if err != nil {
		return nil, err
	}
	return NewStatusReport(q.engine.Gaps.Status(activities, q.wallNow())), nil
}

// NewStatusReport converts the engine status into its reported form
func NewStatusReport(st analysis.ActivityStatus) *StatusReport {
	r := &StatusReport{
		AsOf:          st.AsOf,
		DaysSinceLast: st.DaysSinceLast,
		CurrentStreak: st.CurrentStreak,
		Alert:         st.Alert,
	}
	if last := st.LastActivity; last != nil {
		d := last.Date
		r.LastActivityDate = &d
		r.LastActivityType = last.ActivityType
		r.LastActivityName = last.Name
	}
	return r
}

// DashboardData contains all data needed for the dashboard
type DashboardData struct {
	Status *StatusReport

	// This week, derived live
	ThisWeek store.WeeklySummary
	Today    *store.DailyMetrics

	// Training load
	Fitness         *store.FitnessTrend
	FormDescription string

	RecentActivities []store.Activity
	RecentWeeks      []store.WeeklySummary // newest first

	// For charts
	GapHistory   []float64 // days between the last activities, oldest first
	StepsHistory []float64 // daily steps for the last ChartDays days; missing days are 0
	StepsLabels  []string
}

// Dashboard derives the full dashboard as of now
func (q *QueryService) Dashboard(ctx context.Context) (*DashboardData, error) {
	activities, err := q.store.AllActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}
	daily, err := q.store.AllDailyMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading daily metrics: %w", err)
	}

	now := q.wallNow()
	res := q.engine.Run(activities, daily, now)
	today := analysis.DateOf(now)

	data := &DashboardData{Status: NewStatusReport(res.Status)}

	if n := len(res.Weekly); n > 0 {
		data.ThisWeek = res.Weekly[n-1]
		for i := n - 1; i >= 0 && len(data.RecentWeeks) < ChartWeeks; i-- {
			data.RecentWeeks = append(data.RecentWeeks, res.Weekly[i])
		}
	} else {
		data.ThisWeek = q.engine.Aggregator.Summarize(analysis.WeekStart(today), nil, nil, now)
	}

	for i := len(res.Trends) - 1; i >= 0; i-- {
		if latest := res.Trends[i]; !latest.Date.After(today) {
			data.Fitness = &latest
			data.FormDescription = analysis.FormDescription(latest.TSB)
			break
		}
	}

	// Newest first, like the listing endpoint
	for i := len(res.Activities) - 1; i >= 0 && len(data.RecentActivities) < RecentActivitiesLimit; i-- {
		a := res.Activities[i]
		if analysis.StartInstant(a).After(now) {
			continue
		}
		data.RecentActivities = append(data.RecentActivities, a)
	}

	for _, a := range res.Activities {
		if a.DaysSincePrevious != nil && !analysis.StartInstant(a).After(now) {
			data.GapHistory = append(data.GapHistory, *a.DaysSincePrevious)
		}
	}
	if len(data.GapHistory) > ChartDays*2 {
		data.GapHistory = data.GapHistory[len(data.GapHistory)-ChartDays*2:]
	}

	byDate := make(map[string]store.DailyMetrics, len(daily))
	for _, m := range daily {
		byDate[m.Date.Format("2006-01-02")] = m
	}
	if m, ok := byDate[today.Format("2006-01-02")]; ok {
		data.Today = &m
	}
	for i := ChartDays - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		steps := 0.0
		if m, ok := byDate[d.Format("2006-01-02")]; ok && m.Steps != nil {
			steps = float64(*m.Steps)
		}
		data.StepsHistory = append(data.StepsHistory, steps)
		data.StepsLabels = append(data.StepsLabels, d.Format("Jan 02"))
	}

	return data, nil
}

// Activities lists stored activities newest first
func (q *QueryService) Activities(ctx context.Context, limit, offset int) ([]store.Activity, error) {
	return q.store.ListActivities(ctx, clampLimit(limit), max(offset, 0))
}

// ActivityCount returns the number of stored activities
func (q *QueryService) ActivityCount(ctx context.Context) (int, error) {
	return q.store.CountActivities(ctx)
}

// Activity returns one activity
func (q *QueryService) Activity(ctx context.Context, id int64) (*store.Activity, error) {
	return q.store.GetActivity(ctx, id)
}

// DailyMetrics returns the wellness samples of the last days days, oldest first
func (q *QueryService) DailyMetrics(ctx context.Context, days int) ([]store.DailyMetrics, error) {
	if days <= 0 {
		days = DefaultDailyDays
	}
	today := analysis.DateOf(q.wallNow())
	return q.store.DailyMetricsBetween(ctx, today.AddDate(0, 0, -(days-1)), today)
}

// WeeklySummaries returns the stored summaries of the last weeks weeks, newest first
func (q *QueryService) WeeklySummaries(ctx context.Context, weeks int) ([]store.WeeklySummary, error) {
	if weeks <= 0 {
		weeks = DefaultWeeks
	}
	return q.store.ListWeeklySummaries(ctx, weeks)
}

// FitnessTrends returns CTL/ATL/TSB for the last days days
func (q *QueryService) FitnessTrends(ctx context.Context, days int) ([]store.FitnessTrend, error) {
	if days <= 0 {
		days = TrendDays
	}
	today := analysis.DateOf(q.wallNow())
	return q.store.FitnessTrendsBetween(ctx, today.AddDate(0, 0, -(days-1)), today)
}

// CalendarDay is one cell of the activity calendar
type CalendarDay struct {
	Date       time.Time `json:"date"`
	Activities int       `json:"activities"`
	Zones      []string  `json:"zones,omitempty"`
	Steps      *int      `json:"steps,omitempty"`
	Future     bool      `json:"future,omitempty"`
}

// CalendarMonth is every day of a month with its activities
type CalendarMonth struct {
	Year  int           `json:"year"`
	Month time.Month    `json:"month"`
	Days  []CalendarDay `json:"days"`
}

// ErrInvalidMonth is returned for a month outside 1-12
var ErrInvalidMonth = errors.New("invalid month")

// Calendar returns the activity calendar for one month
func (q *QueryService) Calendar(ctx context.Context, year int, month time.Month) (*CalendarMonth, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	activities, err := q.store.ActivitiesBetween(ctx, first, last)
	if err != nil {
		return nil, err
	}
	daily, err := q.store.DailyMetricsBetween(ctx, first, last)
	if err != nil {
		return nil, err
	}

	today := analysis.DateOf(q.wallNow())
	cal := &CalendarMonth{Year: year, Month: month}
	index := make(map[int]int)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		index[d.Day()] = len(cal.Days)
		cal.Days = append(cal.Days, CalendarDay{Date: d, Future: d.After(today)})
	}

	for _, a := range activities {
		day := &cal.Days[index[a.Date.Day()]]
		day.Activities++
		if a.ZoneClassification != "" {
			day.Zones = append(day.Zones, a.ZoneClassification)
		}
	}
	for _, m := range daily {
		cal.Days[index[m.Date.Day()]].Steps = m.Steps
	}

	return cal, nil
}

// validActivities loads the history without malformed records
func (q *QueryService) validActivities(ctx context.Context) ([]store.Activity, error) {
	activities, err := q.store.AllActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}
	valid, _ := analysis.PartitionActivities(activities)
	return valid, nil
}

func (q *QueryService) wallNow() time.Time {
	return analysis.WallClock(q.now())
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}
