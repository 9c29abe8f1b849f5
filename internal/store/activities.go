package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrDuplicateActivity is returned when inserting an activity whose external ID exists
var ErrDuplicateActivity = errors.New("activity already exists")

const activityColumns = `id, external_id, date, start_time, source, provider, activity_type, name,
	duration_minutes, distance_km, avg_hr, max_hr, avg_power, calories, elevation_gain,
	perceived_effort, notes, zone_classification, hours_since_previous, days_since_previous`

// chronological order used for listings; matches the midday convention for
// date-only entries
const chronological = `date, COALESCE(start_time, date || 'T12:00:00'), id`

const chronologicalDesc = `date DESC, COALESCE(start_time, date || 'T12:00:00') DESC, id DESC`

// UpsertActivity inserts or updates an activity keyed by its external ID and
// returns the row ID. Derived fields are left untouched; they belong to ApplyDerived.
func (db *DB) UpsertActivity(ctx context.Context, a *Activity) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx, `
		INSERT INTO activities (
			external_id, date, start_time, source, provider, activity_type, name,
			duration_minutes, distance_km, avg_hr, max_hr, avg_power, calories,
			elevation_gain, perceived_effort, notes, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(external_id) DO UPDATE SET
			date = excluded.date,
			start_time = excluded.start_time,
			source = excluded.source,
			provider = excluded.provider,
			activity_type = excluded.activity_type,
			name = excluded.name,
			duration_minutes = excluded.duration_minutes,
			distance_km = excluded.distance_km,
			avg_hr = excluded.avg_hr,
			max_hr = excluded.max_hr,
			avg_power = excluded.avg_power,
			calories = excluded.calories,
			elevation_gain = excluded.elevation_gain,
			perceived_effort = excluded.perceived_effort,
			notes = excluded.notes,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`, activityArgs(a)...).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting activity %s: %w", a.ExternalID, err)
	}
	a.ID = id
	return id, nil
}

// InsertActivity inserts a new activity, failing with ErrDuplicateActivity
// if the external ID is already taken.
func (db *DB) InsertActivity(ctx context.Context, a *Activity) (int64, error) {
	var id int64
	err := db.QueryRowContext(ctx, `
		INSERT INTO activities (
			external_id, date, start_time, source, provider, activity_type, name,
			duration_minutes, distance_km, avg_hr, max_hr, avg_power, calories,
			elevation_gain, perceived_effort, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id) DO NOTHING
		RETURNING id
	`, activityArgs(a)...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrDuplicateActivity
	}
	if err != nil {
		return 0, fmt.Errorf("inserting activity %s: %w", a.ExternalID, err)
	}
	a.ID = id
	return id, nil
}

func activityArgs(a *Activity) []any {
	return []any{
		a.ExternalID, formatDate(a.Date), formatTimestamp(a.StartTime), a.Source, a.Provider,
		a.ActivityType, a.Name, a.DurationMinutes, a.DistanceKm, a.AvgHR, a.MaxHR,
		a.AvgPower, a.Calories, a.ElevationGain, a.PerceivedEffort, a.Notes,
	}
}

// GetActivity retrieves an activity by ID
func (db *DB) GetActivity(ctx context.Context, id int64) (*Activity, error) {
	row := db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	return scanActivity(row)
}

// GetActivityByExternalID retrieves an activity by its source identifier
func (db *DB) GetActivityByExternalID(ctx context.Context, externalID string) (*Activity, error) {
	row := db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities WHERE external_id = ?`, externalID)
	return scanActivity(row)
}

// ListActivities returns activities newest first
func (db *DB) ListActivities(ctx context.Context, limit, offset int) ([]Activity, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		ORDER BY `+chronologicalDesc+`
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// AllActivities returns every activity in insertion order. The gap engine
// sorts them itself; insertion order is its tie-break.
func (db *DB) AllActivities(ctx context.Context) ([]Activity, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+activityColumns+` FROM activities ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// ActivitiesBetween returns activities dated within [from, to], oldest first
func (db *DB) ActivitiesBetween(ctx context.Context, from, to time.Time) ([]Activity, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		WHERE date >= ? AND date <= ?
		ORDER BY `+chronological,
		formatDate(from), formatDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// FindOverlapping returns an activity imported from another provider that
// started within window of start. Used to avoid storing a workout twice when
// it is recorded by the watch and mirrored to Strava. Manual entries never match.
func (db *DB) FindOverlapping(ctx context.Context, provider string, start time.Time, window time.Duration) (*Activity, error) {
	from, to := start.Add(-window), start.Add(window)
	row := db.QueryRowContext(ctx, `
		SELECT `+activityColumns+`
		FROM activities
		WHERE source = ? AND provider != ?
			AND start_time IS NOT NULL AND start_time >= ? AND start_time <= ?
		ORDER BY id
		LIMIT 1
	`, SourceImported, provider, from.Format(timestampLayout), to.Format(timestampLayout))
	return scanActivity(row)
}

// DeleteActivity removes an activity. Derived fields of its neighbours are
// stale until the next recompute.
func (db *DB) DeleteActivity(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrActivityNotFound
	}
	return nil
}

// CountActivities returns the total number of activities
func (db *DB) CountActivities(ctx context.Context) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities`).Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(row scanner) (*Activity, error) {
	var a Activity
	var date string
	var startTime sql.NullString

	err := row.Scan(
		&a.ID, &a.ExternalID, &date, &startTime, &a.Source, &a.Provider, &a.ActivityType, &a.Name,
		&a.DurationMinutes, &a.DistanceKm, &a.AvgHR, &a.MaxHR, &a.AvgPower, &a.Calories, &a.ElevationGain,
		&a.PerceivedEffort, &a.Notes, &a.ZoneClassification, &a.HoursSincePrevious, &a.DaysSincePrevious,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, err
	}

	if a.Date, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("parsing date for activity %d: %w", a.ID, err)
	}
	if a.StartTime, err = parseTimestamp(startTime); err != nil {
		return nil, fmt.Errorf("parsing start time for activity %d: %w", a.ID, err)
	}

	return &a, nil
}

func scanActivities(rows *sql.Rows) ([]Activity, error) {
	var activities []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}
