package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// loadDotEnv loads .env from the working directory and the config directory.
// Variables already present in the environment win; missing files are ignored.
func loadDotEnv() error {
	paths := []string{".env"}
	if dir, err := GetConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, ".env"))
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// applyEnv overlays environment variables onto cfg
func applyEnv(cfg *Config) error {
	var errs []error

	setInt := func(key string, dst *int) {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
	setFloat := func(key string, dst *float64) {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = f
	}
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setInt("ZONE2_HR_MIN", &cfg.Thresholds.Zone2HRMin)
	setInt("ZONE2_HR_MAX", &cfg.Thresholds.Zone2HRMax)
	setFloat("ZONE2_MIN_DURATION_MINUTES", &cfg.Thresholds.Zone2MinDuration)
	setInt("VO2MAX_HR_MIN", &cfg.Thresholds.VO2MaxHRMin)
	setFloat("VO2MAX_MIN_DURATION_MINUTES", &cfg.Thresholds.VO2MaxDurationMin)
	setFloat("VO2MAX_MAX_DURATION_MINUTES", &cfg.Thresholds.VO2MaxDurationMax)
	setFloat("TARGET_MAX_DAYS_BETWEEN_ACTIVITIES", &cfg.Thresholds.CriticalGapDays)
	setFloat("YELLOW_GAP_DAYS", &cfg.Thresholds.YellowGapDays)

	// A critical threshold lowered without a yellow one keeps the default ratio
	if _, ok := os.LookupEnv("YELLOW_GAP_DAYS"); !ok {
		t := &cfg.Thresholds
		if t.CriticalGapDays > 0 && t.YellowGapDays >= t.CriticalGapDays {
			d := DefaultConfig().Thresholds
			t.YellowGapDays = t.CriticalGapDays * d.YellowGapDays / d.CriticalGapDays
		}
	}

	setInt("TARGET_STEPS_PER_DAY", &cfg.Targets.StepsPerDay)
	setInt("TARGET_ZONE2_SESSIONS_PER_WEEK", &cfg.Targets.Zone2Sessions)
	setInt("TARGET_STRENGTH_SESSIONS_PER_WEEK", &cfg.Targets.StrengthSessions)
	setInt("TARGET_VO2MAX_SESSIONS_PER_WEEK", &cfg.Targets.VO2MaxSessions)

	setString("STRAVA_CLIENT_ID", &cfg.Strava.ClientID)
	setString("STRAVA_CLIENT_SECRET", &cfg.Strava.ClientSecret)
	setString("GARMIN_ACCESS_TOKEN", &cfg.Garmin.AccessToken)
	setString("GARMIN_DISPLAY_NAME", &cfg.Garmin.DisplayName)

	setInt("SYNC_DAYS", &cfg.Sync.Days)
	setString("LONGEVITY_ADDR", &cfg.Server.Addr)

	return errors.Join(errs...)
}
