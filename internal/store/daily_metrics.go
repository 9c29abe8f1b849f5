package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNoDailyMetrics is returned when no wellness sample exists for a date
var ErrNoDailyMetrics = errors.New("no daily metrics for date")

const dailyColumns = `date, resting_hr, hrv, stress, body_battery, weight, sleep_hours, sleep_score,
	deep_sleep_hours, light_sleep_hours, rem_sleep_hours, awake_hours, steps, floors,
	intensity_minutes, training_load, respiration, spo2, days_since_last_activity, current_streak`

// UpsertDailyMetrics merges a wellness sample into the row for its date.
// Null fields in m keep whatever is already stored, so partial syncs never
// erase earlier data. Derived fields are not written here.
func (db *DB) UpsertDailyMetrics(ctx context.Context, m *DailyMetrics) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO daily_metrics (
			date, resting_hr, hrv, stress, body_battery, weight, sleep_hours, sleep_score,
			deep_sleep_hours, light_sleep_hours, rem_sleep_hours, awake_hours, steps, floors,
			intensity_minutes, training_load, respiration, spo2, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(date) DO UPDATE SET
			resting_hr = COALESCE(excluded.resting_hr, daily_metrics.resting_hr),
			hrv = COALESCE(excluded.hrv, daily_metrics.hrv),
			stress = COALESCE(excluded.stress, daily_metrics.stress),
			body_battery = COALESCE(excluded.body_battery, daily_metrics.body_battery),
			weight = COALESCE(excluded.weight, daily_metrics.weight),
			sleep_hours = COALESCE(excluded.sleep_hours, daily_metrics.sleep_hours),
			sleep_score = COALESCE(excluded.sleep_score, daily_metrics.sleep_score),
			deep_sleep_hours = COALESCE(excluded.deep_sleep_hours, daily_metrics.deep_sleep_hours),
			light_sleep_hours = COALESCE(excluded.light_sleep_hours, daily_metrics.light_sleep_hours),
			rem_sleep_hours = COALESCE(excluded.rem_sleep_hours, daily_metrics.rem_sleep_hours),
			awake_hours = COALESCE(excluded.awake_hours, daily_metrics.awake_hours),
			steps = COALESCE(excluded.steps, daily_metrics.steps),
			floors = COALESCE(excluded.floors, daily_metrics.floors),
			intensity_minutes = COALESCE(excluded.intensity_minutes, daily_metrics.intensity_minutes),
			training_load = COALESCE(excluded.training_load, daily_metrics.training_load),
			respiration = COALESCE(excluded.respiration, daily_metrics.respiration),
			spo2 = COALESCE(excluded.spo2, daily_metrics.spo2),
			updated_at = CURRENT_TIMESTAMP
	`,
		formatDate(m.Date), m.RestingHR, m.HRV, m.Stress, m.BodyBattery, m.Weight, m.SleepHours, m.SleepScore,
		m.DeepSleepHours, m.LightSleepHours, m.REMSleepHours, m.AwakeHours, m.Steps, m.Floors,
		m.IntensityMinutes, m.TrainingLoad, m.Respiration, m.SpO2,
	)
	if err != nil {
		return fmt.Errorf("upserting daily metrics for %s: %w", formatDate(m.Date), err)
	}
	return nil
}

// GetDailyMetrics returns the sample for one date
func (db *DB) GetDailyMetrics(ctx context.Context, date time.Time) (*DailyMetrics, error) {
	row := db.QueryRowContext(ctx, `SELECT `+dailyColumns+` FROM daily_metrics WHERE date = ?`, formatDate(date))
	m, err := scanDailyMetrics(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoDailyMetrics
	}
	return m, err
}

// DailyMetricsBetween returns samples dated within [from, to], oldest first
func (db *DB) DailyMetricsBetween(ctx context.Context, from, to time.Time) ([]DailyMetrics, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+dailyColumns+`
		FROM daily_metrics
		WHERE date >= ? AND date <= ?
		ORDER BY date
	`, formatDate(from), formatDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDailyMetricsRows(rows)
}

// AllDailyMetrics returns every sample, oldest first
func (db *DB) AllDailyMetrics(ctx context.Context) ([]DailyMetrics, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+dailyColumns+` FROM daily_metrics ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDailyMetricsRows(rows)
}

func scanDailyMetrics(row scanner) (*DailyMetrics, error) {
	var m DailyMetrics
	var date string

	err := row.Scan(
		&date, &m.RestingHR, &m.HRV, &m.Stress, &m.BodyBattery, &m.Weight, &m.SleepHours, &m.SleepScore,
		&m.DeepSleepHours, &m.LightSleepHours, &m.REMSleepHours, &m.AwakeHours, &m.Steps, &m.Floors,
		&m.IntensityMinutes, &m.TrainingLoad, &m.Respiration, &m.SpO2, &m.DaysSinceLastActivity, &m.CurrentStreak,
	)
	if err != nil {
		return nil, err
	}

	if m.Date, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("parsing daily metrics date %q: %w", date, err)
	}
	return &m, nil
}

func scanDailyMetricsRows(rows *sql.Rows) ([]DailyMetrics, error) {
	var out []DailyMetrics
	for rows.Next() {
		m, err := scanDailyMetrics(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}
