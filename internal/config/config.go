package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the application configuration
type Config struct {
	Strava     StravaConfig     `json:"strava"`
	Garmin     GarminConfig     `json:"garmin"`
	Athlete    AthleteConfig    `json:"athlete"`
	Thresholds ThresholdsConfig `json:"thresholds"`
	Targets    TargetsConfig    `json:"targets"`
	Display    DisplayConfig    `json:"display"`
	Server     ServerConfig     `json:"server"`
	Sync       SyncConfig       `json:"sync"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	CallbackPort int    `json:"callback_port"`
}

// GarminConfig holds the wearable cloud endpoint and a pre-issued access token.
// Obtaining the token is handled outside this program.
type GarminConfig struct {
	BaseURL     string `json:"base_url"`
	DisplayName string `json:"display_name"`
	AccessToken string `json:"access_token"`
}

// AthleteConfig holds athlete-specific settings used for training load
type AthleteConfig struct {
	RestingHR float64 `json:"resting_hr"`
	MaxHR     float64 `json:"max_hr"`
}

// ThresholdsConfig holds the classification and gap thresholds
type ThresholdsConfig struct {
	Zone2HRMin        int     `json:"zone2_hr_min"`
	Zone2HRMax        int     `json:"zone2_hr_max"`
	Zone2MinDuration  float64 `json:"zone2_min_duration"`
	VO2MaxHRMin       int     `json:"vo2max_hr_min"`
	VO2MaxDurationMin float64 `json:"vo2max_duration_min"`
	VO2MaxDurationMax float64 `json:"vo2max_duration_max"`
	CriticalGapDays   float64 `json:"critical_gap_days"`
	YellowGapDays     float64 `json:"yellow_gap_days"`
}

// TargetsConfig holds weekly targets. A zero VO2 max target disables that check.
type TargetsConfig struct {
	Zone2Sessions    int `json:"target_zone2_sessions"`
	StrengthSessions int `json:"target_strength_sessions"`
	StepsPerDay      int `json:"target_steps_per_day"`
	VO2MaxSessions   int `json:"target_vo2max_sessions"`
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `json:"distance_unit"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr string `json:"addr"`
}

// SyncConfig controls how much history each sync pulls
type SyncConfig struct {
	Days int `json:"days"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Strava: StravaConfig{
			CallbackPort: 8089,
		},
		Garmin: GarminConfig{
			BaseURL: "https://connectapi.garmin.com",
		},
		Athlete: AthleteConfig{
			RestingHR: 50,
			MaxHR:     185,
		},
		Thresholds: ThresholdsConfig{
			Zone2HRMin:        120,
			Zone2HRMax:        140,
			Zone2MinDuration:  40,
			VO2MaxHRMin:       170,
			VO2MaxDurationMin: 25,
			VO2MaxDurationMax: 50,
			CriticalGapDays:   2.0,
			YellowGapDays:     1.5,
		},
		Targets: TargetsConfig{
			Zone2Sessions:    3,
			StrengthSessions: 3,
			StepsPerDay:      8000,
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Sync: SyncConfig{
			Days: 30,
		},
	}
}

// Load reads the configuration from the config directory, then applies
// .env and environment overrides.
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults fills zero values from DefaultConfig
func applyDefaults(cfg *Config) {
	d := DefaultConfig()

	if cfg.Strava.CallbackPort == 0 {
		cfg.Strava.CallbackPort = d.Strava.CallbackPort
	}
	if cfg.Garmin.BaseURL == "" {
		cfg.Garmin.BaseURL = d.Garmin.BaseURL
	}
	if cfg.Athlete.RestingHR == 0 {
		cfg.Athlete.RestingHR = d.Athlete.RestingHR
	}
	if cfg.Athlete.MaxHR == 0 {
		cfg.Athlete.MaxHR = d.Athlete.MaxHR
	}

	t := &cfg.Thresholds
	if t.Zone2HRMin == 0 {
		t.Zone2HRMin = d.Thresholds.Zone2HRMin
	}
	if t.Zone2HRMax == 0 {
		t.Zone2HRMax = d.Thresholds.Zone2HRMax
	}
	if t.Zone2MinDuration == 0 {
		t.Zone2MinDuration = d.Thresholds.Zone2MinDuration
	}
	if t.VO2MaxHRMin == 0 {
		t.VO2MaxHRMin = d.Thresholds.VO2MaxHRMin
	}
	if t.VO2MaxDurationMin == 0 {
		t.VO2MaxDurationMin = d.Thresholds.VO2MaxDurationMin
	}
	if t.VO2MaxDurationMax == 0 {
		t.VO2MaxDurationMax = d.Thresholds.VO2MaxDurationMax
	}
	if t.CriticalGapDays == 0 {
		t.CriticalGapDays = d.Thresholds.CriticalGapDays
	}
	if t.YellowGapDays == 0 {
		t.YellowGapDays = d.Thresholds.YellowGapDays
	}

	if cfg.Targets.Zone2Sessions == 0 {
		cfg.Targets.Zone2Sessions = d.Targets.Zone2Sessions
	}
	if cfg.Targets.StrengthSessions == 0 {
		cfg.Targets.StrengthSessions = d.Targets.StrengthSessions
	}
	if cfg.Targets.StepsPerDay == 0 {
		cfg.Targets.StepsPerDay = d.Targets.StepsPerDay
	}

	if cfg.Display.DistanceUnit == "" {
		cfg.Display.DistanceUnit = d.Display.DistanceUnit
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = d.Server.Addr
	}
	if cfg.Sync.Days == 0 {
		cfg.Sync.Days = d.Sync.Days
	}
}

// Save writes the configuration to the config directory
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Strava.ClientID = "YOUR_CLIENT_ID"
	example.Strava.ClientSecret = "YOUR_CLIENT_SECRET"
	example.Garmin.DisplayName = "YOUR_GARMIN_DISPLAY_NAME"

	return Save(&example)
}

// Validate checks thresholds and targets. Misconfigured thresholds would
// misclassify every activity, so callers should treat an error as fatal.
func (c *Config) Validate() error {
	t := c.Thresholds

	if t.Zone2HRMin <= 0 || t.Zone2HRMax <= 0 {
		return fmt.Errorf("thresholds.zone2_hr_min and zone2_hr_max must be positive, got %d and %d", t.Zone2HRMin, t.Zone2HRMax)
	}
	if t.Zone2HRMin > t.Zone2HRMax {
		return fmt.Errorf("thresholds.zone2_hr_min (%d) must not exceed zone2_hr_max (%d)", t.Zone2HRMin, t.Zone2HRMax)
	}
	if t.Zone2MinDuration <= 0 {
		return fmt.Errorf("thresholds.zone2_min_duration must be positive, got %v", t.Zone2MinDuration)
	}
	if t.VO2MaxHRMin <= 0 {
		return fmt.Errorf("thresholds.vo2max_hr_min must be positive, got %d", t.VO2MaxHRMin)
	}
	if t.VO2MaxDurationMin <= 0 || t.VO2MaxDurationMin > t.VO2MaxDurationMax {
		return fmt.Errorf("thresholds.vo2max_duration_min (%v) must be positive and not exceed vo2max_duration_max (%v)", t.VO2MaxDurationMin, t.VO2MaxDurationMax)
	}
	if t.CriticalGapDays <= 0 {
		return fmt.Errorf("thresholds.critical_gap_days must be positive, got %v", t.CriticalGapDays)
	}
	if t.YellowGapDays <= 0 || t.YellowGapDays >= t.CriticalGapDays {
		return fmt.Errorf("thresholds.yellow_gap_days (%v) must be positive and below critical_gap_days (%v)", t.YellowGapDays, t.CriticalGapDays)
	}

	g := c.Targets
	if g.Zone2Sessions < 0 || g.StrengthSessions < 0 || g.StepsPerDay < 0 || g.VO2MaxSessions < 0 {
		return errors.New("targets must not be negative")
	}

	if c.Athlete.RestingHR > 0 && c.Athlete.MaxHR > 0 && c.Athlete.RestingHR >= c.Athlete.MaxHR {
		return fmt.Errorf("athlete.resting_hr (%v) must be less than athlete.max_hr (%v)", c.Athlete.RestingHR, c.Athlete.MaxHR)
	}

	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}

	if c.Sync.Days < 0 {
		return fmt.Errorf("sync.days must not be negative, got %d", c.Sync.Days)
	}

	return nil
}

// StravaEnabled reports whether real Strava credentials are configured
func (c *Config) StravaEnabled() bool {
	return c.Strava.ClientID != "" && c.Strava.ClientID != "YOUR_CLIENT_ID" &&
		c.Strava.ClientSecret != "" && c.Strava.ClientSecret != "YOUR_CLIENT_SECRET"
}

// GarminEnabled reports whether the wearable source is configured
func (c *Config) GarminEnabled() bool {
	return c.Garmin.AccessToken != "" &&
		c.Garmin.DisplayName != "" && c.Garmin.DisplayName != "YOUR_GARMIN_DISPLAY_NAME"
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory.
// LONGEVITY_HOME overrides the default of ~/.longevity.
func GetConfigDir() (string, error) {
	if dir := os.Getenv("LONGEVITY_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".longevity"), nil
}
