package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const weeklyColumns = `week_start, week_end, avg_resting_hr, avg_hrv, avg_stress, avg_body_battery,
	avg_weight, avg_sleep_hours, avg_sleep_score, avg_daily_steps, total_activities,
	zone2_sessions, vo2max_sessions, strength_sessions, other_sessions, zone2_avg_hr,
	zone2_total_minutes, total_training_load, longest_gap_days, activity_streak_end,
	days_with_activity, missed_activity_days, hit_zone2_target, hit_strength_target,
	hit_steps_target, no_long_gaps, targets, perfect_week`

// ListWeeklySummaries returns the most recent summaries, newest first
func (db *DB) ListWeeklySummaries(ctx context.Context, limit int) ([]WeeklySummary, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+weeklyColumns+`
		FROM weekly_summaries
		ORDER BY week_start DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WeeklySummary
	for rows.Next() {
		w, err := scanWeeklySummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

// GetWeeklySummary returns the summary for the week starting on weekStart
func (db *DB) GetWeeklySummary(ctx context.Context, weekStart time.Time) (*WeeklySummary, error) {
	row := db.QueryRowContext(ctx, `SELECT `+weeklyColumns+` FROM weekly_summaries WHERE week_start = ?`, formatDate(weekStart))
	w, err := scanWeeklySummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWeekNotFound
	}
	return w, err
}

func insertWeeklySummary(ctx context.Context, tx *sql.Tx, w *WeeklySummary) error {
	targets := w.Targets
	if targets == nil {
		targets = []TargetResult{}
	}
	targetsJSON, err := json.Marshal(targets)
	if err != nil {
		return fmt.Errorf("encoding targets: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO weekly_summaries (`+weeklyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		formatDate(w.WeekStart), formatDate(w.WeekEnd),
		w.AvgRestingHR, w.AvgHRV, w.AvgStress, w.AvgBodyBattery,
		w.AvgWeight, w.AvgSleepHours, w.AvgSleepScore, w.AvgDailySteps,
		w.TotalActivities, w.Zone2Sessions, w.VO2MaxSessions, w.StrengthSessions, w.OtherSessions,
		w.Zone2AvgHR, w.Zone2TotalMinutes, w.TotalTrainingLoad, w.LongestGapDays,
		w.ActivityStreakEnd, w.DaysWithActivity, w.MissedActivityDays,
		boolToInt(w.HitZone2Target), boolToInt(w.HitStrengthTarget),
		boolToInt(w.HitStepsTarget), boolToInt(w.NoLongGaps),
		string(targetsJSON), boolToInt(w.PerfectWeek),
	)
	return err
}

func scanWeeklySummary(row scanner) (*WeeklySummary, error) {
	var w WeeklySummary
	var weekStart, weekEnd, targets string

	err := row.Scan(
		&weekStart, &weekEnd, &w.AvgRestingHR, &w.AvgHRV, &w.AvgStress, &w.AvgBodyBattery,
		&w.AvgWeight, &w.AvgSleepHours, &w.AvgSleepScore, &w.AvgDailySteps, &w.TotalActivities,
		&w.Zone2Sessions, &w.VO2MaxSessions, &w.StrengthSessions, &w.OtherSessions, &w.Zone2AvgHR,
		&w.Zone2TotalMinutes, &w.TotalTrainingLoad, &w.LongestGapDays, &w.ActivityStreakEnd,
		&w.DaysWithActivity, &w.MissedActivityDays, &w.HitZone2Target, &w.HitStrengthTarget,
		&w.HitStepsTarget, &w.NoLongGaps, &targets, &w.PerfectWeek,
	)
	if err != nil {
		return nil, err
	}

	if w.WeekStart, err = parseDate(weekStart); err != nil {
		return nil, fmt.Errorf("parsing week start %q: %w", weekStart, err)
	}
	if w.WeekEnd, err = parseDate(weekEnd); err != nil {
		return nil, fmt.Errorf("parsing week end %q: %w", weekEnd, err)
	}
	if err := json.Unmarshal([]byte(targets), &w.Targets); err != nil {
		return nil, fmt.Errorf("decoding targets for week %s: %w", weekStart, err)
	}

	return &w, nil
}
