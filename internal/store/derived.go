package store

import (
	"context"
	"fmt"
	"time"
)

// Derived is the full output of one recompute pass
type Derived struct {
	Activities []Activity     // zone and gap fields are written, matched by ID
	Daily      []DailyMetrics // only the derived fields are written, matched by date
	Weekly     []WeeklySummary
	Trends     []FitnessTrend
}

// ApplyDerived writes a recompute pass in a single transaction. Weekly
// summaries and fitness trends are replaced wholesale. Daily rows that do not
// exist yet are created with only their derived fields set.
func (db *DB) ApplyDerived(ctx context.Context, d Derived) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	actStmt, err := tx.PrepareContext(ctx, `
		UPDATE activities
		SET zone_classification = ?, hours_since_previous = ?, days_since_previous = ?
		WHERE id = ?
	`)
	if err != nil {
		return fmt.Errorf("preparing activity update: %w", err)
	}
	defer actStmt.Close()

	for _, a := range d.Activities {
		if _, err := actStmt.ExecContext(ctx, a.ZoneClassification, a.HoursSincePrevious, a.DaysSincePrevious, a.ID); err != nil {
			return fmt.Errorf("updating activity %d: %w", a.ID, err)
		}
	}

	dailyStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_metrics (date, days_since_last_activity, current_streak, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(date) DO UPDATE SET
			days_since_last_activity = excluded.days_since_last_activity,
			current_streak = excluded.current_streak,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("preparing daily update: %w", err)
	}
	defer dailyStmt.Close()

	for _, m := range d.Daily {
		if _, err := dailyStmt.ExecContext(ctx, formatDate(m.Date), m.DaysSinceLastActivity, m.CurrentStreak); err != nil {
			return fmt.Errorf("updating daily metrics %s: %w", formatDate(m.Date), err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM weekly_summaries`); err != nil {
		return fmt.Errorf("clearing weekly summaries: %w", err)
	}
	for i := range d.Weekly {
		if err := insertWeeklySummary(ctx, tx, &d.Weekly[i]); err != nil {
			return fmt.Errorf("inserting week %s: %w", formatDate(d.Weekly[i].WeekStart), err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM fitness_trends`); err != nil {
		return fmt.Errorf("clearing fitness trends: %w", err)
	}
	for _, t := range d.Trends {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO fitness_trends (date, trimp, ctl, atl, tsb)
			VALUES (?, ?, ?, ?, ?)
		`, formatDate(t.Date), t.TRIMP, t.CTL, t.ATL, t.TSB); err != nil {
			return fmt.Errorf("inserting fitness trend %s: %w", formatDate(t.Date), err)
		}
	}

	return tx.Commit()
}

// FitnessTrendsBetween returns the training load model for [from, to], oldest first
func (db *DB) FitnessTrendsBetween(ctx context.Context, from, to time.Time) ([]FitnessTrend, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT date, trimp, ctl, atl, tsb
		FROM fitness_trends
		WHERE date >= ? AND date <= ?
		ORDER BY date
	`, formatDate(from), formatDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FitnessTrend
	for rows.Next() {
		var t FitnessTrend
		var date string
		if err := rows.Scan(&date, &t.TRIMP, &t.CTL, &t.ATL, &t.TSB); err != nil {
			return nil, err
		}
		if t.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("parsing trend date %q: %w", date, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
