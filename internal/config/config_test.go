package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 120, cfg.Thresholds.Zone2HRMin)
	assert.Equal(t, 140, cfg.Thresholds.Zone2HRMax)
	assert.Equal(t, 40.0, cfg.Thresholds.Zone2MinDuration)
	assert.Equal(t, 170, cfg.Thresholds.VO2MaxHRMin)
	assert.Equal(t, 25.0, cfg.Thresholds.VO2MaxDurationMin)
	assert.Equal(t, 50.0, cfg.Thresholds.VO2MaxDurationMax)
	assert.Equal(t, 2.0, cfg.Thresholds.CriticalGapDays)
	assert.Equal(t, 1.5, cfg.Thresholds.YellowGapDays)

	assert.Equal(t, 3, cfg.Targets.Zone2Sessions)
	assert.Equal(t, 3, cfg.Targets.StrengthSessions)
	assert.Equal(t, 8000, cfg.Targets.StepsPerDay)
	assert.Zero(t, cfg.Targets.VO2MaxSessions)

	// Strava config should be empty by default
	assert.Empty(t, cfg.Strava.ClientID)
	assert.Empty(t, cfg.Strava.ClientSecret)

	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		errContains string
	}{
		{
			name:   "defaults",
			modify: func(*Config) {},
		},
		{
			name: "zone2 min above max",
			modify: func(c *Config) {
				c.Thresholds.Zone2HRMin = 150
			},
			errContains: "zone2_hr_min",
		},
		{
			name: "zone2 band of one bpm",
			modify: func(c *Config) {
				c.Thresholds.Zone2HRMin = 130
				c.Thresholds.Zone2HRMax = 130
			},
		},
		{
			name: "vo2 duration window inverted",
			modify: func(c *Config) {
				c.Thresholds.VO2MaxDurationMin = 60
			},
			errContains: "vo2max_duration_min",
		},
		{
			name: "zero critical gap",
			modify: func(c *Config) {
				c.Thresholds.CriticalGapDays = 0
			},
			errContains: "critical_gap_days",
		},
		{
			name: "yellow at critical",
			modify: func(c *Config) {
				c.Thresholds.YellowGapDays = 2.0
			},
			errContains: "yellow_gap_days",
		},
		{
			name: "negative target",
			modify: func(c *Config) {
				c.Targets.StrengthSessions = -1
			},
			errContains: "targets",
		},
		{
			name: "resting above max hr",
			modify: func(c *Config) {
				c.Athlete.RestingHR = 200
			},
			errContains: "resting_hr",
		},
		{
			name: "bad distance unit",
			modify: func(c *Config) {
				c.Display.DistanceUnit = "furlongs"
			},
			errContains: "distance_unit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.errContains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestSourceEnabled(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.StravaEnabled())
	assert.False(t, cfg.GarminEnabled())

	cfg.Strava.ClientID = "YOUR_CLIENT_ID"
	cfg.Strava.ClientSecret = "secret"
	assert.False(t, cfg.StravaEnabled(), "placeholder client ID")

	cfg.Strava.ClientID = "12345"
	assert.True(t, cfg.StravaEnabled())

	cfg.Garmin.AccessToken = "token"
	cfg.Garmin.DisplayName = "runner"
	assert.True(t, cfg.GarminEnabled())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LONGEVITY_HOME", dir)

	_, err := Load()
	require.ErrorIs(t, err, ErrNoConfig)

	require.NoError(t, CreateExample())
	require.FileExists(t, filepath.Join(dir, "config.json"))

	// Partial file: everything missing falls back to defaults
	partial := `{"thresholds": {"zone2_hr_min": 115}, "targets": {"target_vo2max_sessions": 1}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(partial), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 115, cfg.Thresholds.Zone2HRMin)
	assert.Equal(t, 140, cfg.Thresholds.Zone2HRMax)
	assert.Equal(t, 1, cfg.Targets.VO2MaxSessions)
	assert.Equal(t, 8000, cfg.Targets.StepsPerDay)
	assert.Equal(t, 30, cfg.Sync.Days)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LONGEVITY_HOME", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{}`), 0600))

	t.Setenv("TARGET_MAX_DAYS_BETWEEN_ACTIVITIES", "3")
	t.Setenv("TARGET_STEPS_PER_DAY", "10000")
	t.Setenv("ZONE2_HR_MAX", "145")

	// .env in the config dir does not override values already in the environment
	env := "TARGET_STEPS_PER_DAY=6000\nSTRAVA_CLIENT_ID=from-dotenv\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0600))
	t.Cleanup(func() { os.Unsetenv("STRAVA_CLIENT_ID") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.Thresholds.CriticalGapDays)
	assert.Equal(t, 10000, cfg.Targets.StepsPerDay)
	assert.Equal(t, 145, cfg.Thresholds.Zone2HRMax)
	assert.Equal(t, "from-dotenv", cfg.Strava.ClientID)
}

func TestLoadEnvGapThresholds(t *testing.T) {
	tests := []struct {
		name         string
		critical     string
		yellow       string
		wantCritical float64
		wantYellow   float64
	}{
		{name: "critical lowered scales yellow", critical: "1", wantCritical: 1, wantYellow: 0.75},
		{name: "critical raised keeps yellow", critical: "3", wantCritical: 3, wantYellow: 1.5},
		{name: "both set", critical: "1", yellow: "0.5", wantCritical: 1, wantYellow: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Setenv("LONGEVITY_HOME", dir)
			require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{}`), 0600))

			t.Setenv("TARGET_MAX_DAYS_BETWEEN_ACTIVITIES", tt.critical)
			if tt.yellow != "" {
				t.Setenv("YELLOW_GAP_DAYS", tt.yellow)
			}

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.wantCritical, cfg.Thresholds.CriticalGapDays)
			assert.Equal(t, tt.wantYellow, cfg.Thresholds.YellowGapDays)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestLoadEnvParseError(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LONGEVITY_HOME", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{}`), 0600))
	t.Setenv("ZONE2_HR_MIN", "one-twenty")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ZONE2_HR_MIN")
}
