package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Provider tokens, one row per provider
		`CREATE TABLE IF NOT EXISTS auth (
			provider TEXT PRIMARY KEY,
			athlete_id INTEGER NOT NULL,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at INTEGER NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Activities from every source. The id column doubles as insertion
		// order for the chronological tie-break.
		`CREATE TABLE IF NOT EXISTS activities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			external_id TEXT NOT NULL UNIQUE,
			date TEXT NOT NULL,
			start_time TEXT,
			source TEXT NOT NULL CHECK (source IN ('imported', 'manual')),
			provider TEXT NOT NULL,
			activity_type TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			duration_minutes REAL NOT NULL,
			distance_km REAL,
			avg_hr INTEGER,
			max_hr INTEGER,
			avg_power INTEGER,
			calories INTEGER,
			elevation_gain REAL,
			perceived_effort INTEGER,
			notes TEXT NOT NULL DEFAULT '',
			zone_classification TEXT NOT NULL DEFAULT '',
			hours_since_previous REAL,
			days_since_previous REAL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_date ON activities(date)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_zone ON activities(zone_classification)`,

		// Daily wellness samples
		`CREATE TABLE IF NOT EXISTS daily_metrics (
			date TEXT PRIMARY KEY,
			resting_hr INTEGER,
			hrv REAL,
			stress INTEGER,
			body_battery INTEGER,
			weight REAL,
			sleep_hours REAL,
			sleep_score INTEGER,
			deep_sleep_hours REAL,
			light_sleep_hours REAL,
			rem_sleep_hours REAL,
			awake_hours REAL,
			steps INTEGER,
			floors INTEGER,
			intensity_minutes INTEGER,
			training_load REAL,
			respiration REAL,
			spo2 REAL,
			days_since_last_activity REAL,
			current_streak INTEGER,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Weekly summaries, rebuilt wholesale on every recompute
		`CREATE TABLE IF NOT EXISTS weekly_summaries (
			week_start TEXT PRIMARY KEY,
			week_end TEXT NOT NULL,
			avg_resting_hr REAL,
			avg_hrv REAL,
			avg_stress REAL,
			avg_body_battery REAL,
			avg_weight REAL,
			avg_sleep_hours REAL,
			avg_sleep_score REAL,
			avg_daily_steps REAL,
			total_activities INTEGER NOT NULL,
			zone2_sessions INTEGER NOT NULL,
			vo2max_sessions INTEGER NOT NULL,
			strength_sessions INTEGER NOT NULL,
			other_sessions INTEGER NOT NULL,
			zone2_avg_hr REAL,
			zone2_total_minutes REAL NOT NULL,
			total_training_load REAL,
			longest_gap_days REAL,
			activity_streak_end INTEGER NOT NULL,
			days_with_activity INTEGER NOT NULL,
			missed_activity_days INTEGER NOT NULL,
			hit_zone2_target INTEGER NOT NULL,
			hit_strength_target INTEGER NOT NULL,
			hit_steps_target INTEGER NOT NULL,
			no_long_gaps INTEGER NOT NULL,
			targets TEXT NOT NULL DEFAULT '[]',
			perfect_week INTEGER NOT NULL,
			computed_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Daily Fitness Trends
		`CREATE TABLE IF NOT EXISTS fitness_trends (
			date TEXT PRIMARY KEY,
			trimp REAL NOT NULL,
			ctl REAL NOT NULL,
			atl REAL NOT NULL,
			tsb REAL NOT NULL,
			computed_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,

		// Sync State (key-value store for sync tracking)
		`CREATE TABLE IF NOT EXISTS sync_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
