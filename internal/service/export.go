package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"longevity/internal/analysis"
	"longevity/internal/store"
)

// Export writes activities, daily metrics and weekly summaries as CSV files
// into a new timestamped directory under dir and returns its path. Derived
// values are exported as last recomputed.
func (q *QueryService) Export(ctx context.Context, dir string) (string, error) {
	out := filepath.Join(dir, "longevity-export-"+q.now().Format("20060102-150405"))
	if err := os.MkdirAll(out, 0755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	activities, err := q.store.AllActivities(ctx)
	if err != nil {
		return "", err
	}
	daily, err := q.store.AllDailyMetrics(ctx)
	if err != nil {
		return "", err
	}
	weekly, err := q.store.ListWeeklySummaries(ctx, math.MaxInt32)
	if err != nil {
		return "", err
	}

	files := []struct {
		name string
		rows [][]string
	}{
		{"activities.csv", activityRows(analysis.SortChronological(activities))},
		{"daily_metrics.csv", dailyRows(daily)},
		{"weekly_summaries.csv", weeklyRows(weekly)},
	}

	for _, f := range files {
		if err := writeCSV(filepath.Join(out, f.name), f.rows); err != nil {
			return "", err
		}
	}

	return out, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func activityRows(activities []store.Activity) [][]string {
	rows := [][]string{{
		"external_id", "date", "start_time", "source", "provider", "activity_type", "name",
		"duration_minutes", "distance_km", "avg_hr", "max_hr", "avg_power", "calories",
		"elevation_gain", "perceived_effort", "notes", "zone_classification",
		"hours_since_previous", "days_since_previous",
	}}
	for _, a := range activities {
		start := ""
		if a.StartTime != nil {
			start = a.StartTime.Format("2006-01-02T15:04:05")
		}
		rows = append(rows, []string{
			a.ExternalID, fmtDate(a.Date), start, a.Source, a.Provider, a.ActivityType, a.Name,
			fmtFloat(a.DurationMinutes), fmtFloatPtr(a.DistanceKm), fmtIntPtr(a.AvgHR), fmtIntPtr(a.MaxHR),
			fmtIntPtr(a.AvgPower), fmtIntPtr(a.Calories), fmtFloatPtr(a.ElevationGain),
			fmtIntPtr(a.PerceivedEffort), a.Notes, a.ZoneClassification,
			fmtFloatPtr(a.HoursSincePrevious), fmtFloatPtr(a.DaysSincePrevious),
		})
	}
	return rows
}

func dailyRows(daily []store.DailyMetrics) [][]string {
	rows := [][]string{{
		"date", "resting_hr", "hrv", "stress", "body_battery", "weight", "sleep_hours", "sleep_score",
		"deep_sleep_hours", "light_sleep_hours", "rem_sleep_hours", "awake_hours", "steps", "floors",
		"intensity_minutes", "training_load", "respiration", "spo2",
		"days_since_last_activity", "current_streak",
	}}
	for _, m := range daily {
		rows = append(rows, []string{
			fmtDate(m.Date), fmtIntPtr(m.RestingHR), fmtFloatPtr(m.HRV), fmtIntPtr(m.Stress),
			fmtIntPtr(m.BodyBattery), fmtFloatPtr(m.Weight), fmtFloatPtr(m.SleepHours), fmtIntPtr(m.SleepScore),
			fmtFloatPtr(m.DeepSleepHours), fmtFloatPtr(m.LightSleepHours), fmtFloatPtr(m.REMSleepHours),
			fmtFloatPtr(m.AwakeHours), fmtIntPtr(m.Steps), fmtIntPtr(m.Floors), fmtIntPtr(m.IntensityMinutes),
			fmtFloatPtr(m.TrainingLoad), fmtFloatPtr(m.Respiration), fmtFloatPtr(m.SpO2),
			fmtFloatPtr(m.DaysSinceLastActivity), fmtIntPtr(m.CurrentStreak),
		})
	}
	return rows
}

func weeklyRows(weekly []store.WeeklySummary) [][]string {
	rows := [][]string{{
		"week_start", "week_end", "avg_resting_hr", "avg_hrv", "avg_stress", "avg_body_battery",
		"avg_weight", "avg_sleep_hours", "avg_sleep_score", "avg_daily_steps",
		"total_activities", "zone2_sessions", "vo2max_sessions", "strength_sessions", "other_sessions",
		"zone2_avg_hr", "zone2_total_minutes", "total_training_load", "longest_gap_days",
		"activity_streak_end", "days_with_activity", "missed_activity_days",
		"hit_zone2_target", "hit_strength_target", "hit_steps_target", "no_long_gaps", "perfect_week",
	}}
	// oldest first
	for i := len(weekly) - 1; i >= 0; i-- {
		w := weekly[i]
		rows = append(rows, []string{
			fmtDate(w.WeekStart), fmtDate(w.WeekEnd), fmtFloatPtr(w.AvgRestingHR), fmtFloatPtr(w.AvgHRV),
			fmtFloatPtr(w.AvgStress), fmtFloatPtr(w.AvgBodyBattery), fmtFloatPtr(w.AvgWeight),
			fmtFloatPtr(w.AvgSleepHours), fmtFloatPtr(w.AvgSleepScore), fmtFloatPtr(w.AvgDailySteps),
			strconv.Itoa(w.TotalActivities), strconv.Itoa(w.Zone2Sessions), strconv.Itoa(w.VO2MaxSessions),
			strconv.Itoa(w.StrengthSessions), strconv.Itoa(w.OtherSessions), fmtFloatPtr(w.Zone2AvgHR),
			fmtFloat(w.Zone2TotalMinutes), fmtFloatPtr(w.TotalTrainingLoad), fmtFloatPtr(w.LongestGapDays),
			strconv.Itoa(w.ActivityStreakEnd), strconv.Itoa(w.DaysWithActivity), strconv.Itoa(w.MissedActivityDays),
			strconv.FormatBool(w.HitZone2Target), strconv.FormatBool(w.HitStrengthTarget),
			strconv.FormatBool(w.HitStepsTarget), strconv.FormatBool(w.NoLongGaps), strconv.FormatBool(w.PerfectWeek),
		})
	}
	return rows
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fmtFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return fmtFloat(*v)
}

func fmtIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
