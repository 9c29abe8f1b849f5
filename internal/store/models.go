package store

import "time"

// Activity sources
const (
	SourceImported = "imported"
	SourceManual   = "manual"
)

// Zone labels written by the classifier
const (
	ZoneZone2    = "zone2"
	ZoneVO2Max   = "vo2max"
	ZoneStrength = "strength"
	ZoneOther    = "other"
)

// Auth represents OAuth tokens for one provider
type Auth struct {
	Provider     string    `db:"provider"`
	AthleteID    int64     `db:"athlete_id"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
}

// Activity is one recorded bout of exercise, imported or entered by hand.
// Date is a calendar date at midnight UTC. StartTime is a local wall-clock
// time carried in time.UTC, nil when the time of day is unknown.
type Activity struct {
	ID              int64      `db:"id"`
	ExternalID      string     `db:"external_id"`
	Date            time.Time  `db:"date"`
	StartTime       *time.Time `db:"start_time"`
	Source          string     `db:"source"`   // imported | manual
	Provider        string     `db:"provider"` // garmin | strava | manual
	ActivityType    string     `db:"activity_type"`
	Name            string     `db:"name"`
	DurationMinutes float64    `db:"duration_minutes"`
	DistanceKm      *float64   `db:"distance_km"`
	AvgHR           *int       `db:"avg_hr"`
	MaxHR           *int       `db:"max_hr"`
	AvgPower        *int       `db:"avg_power"` // cycling only
	Calories        *int       `db:"calories"`
	ElevationGain   *float64   `db:"elevation_gain"` // meters
	PerceivedEffort *int       `db:"perceived_effort"`
	Notes           string     `db:"notes"`

	// Derived, recomputed from the full history on every run
	ZoneClassification string   `db:"zone_classification"`
	HoursSincePrevious *float64 `db:"hours_since_previous"`
	DaysSincePrevious  *float64 `db:"days_since_previous"`
}

// DailyMetrics is the wellness sample for one calendar date.
// Every measured field is independently nullable.
type DailyMetrics struct {
	Date             time.Time `db:"date"`
	RestingHR        *int      `db:"resting_hr"`
	HRV              *float64  `db:"hrv"`
	Stress           *int      `db:"stress"`
	BodyBattery      *int      `db:"body_battery"`
	Weight           *float64  `db:"weight"` // kg
	SleepHours       *float64  `db:"sleep_hours"`
	SleepScore       *int      `db:"sleep_score"`
	DeepSleepHours   *float64  `db:"deep_sleep_hours"`
	LightSleepHours  *float64  `db:"light_sleep_hours"`
	REMSleepHours    *float64  `db:"rem_sleep_hours"`
	AwakeHours       *float64  `db:"awake_hours"`
	Steps            *int      `db:"steps"`
	Floors           *int      `db:"floors"`
	IntensityMinutes *int      `db:"intensity_minutes"`
	TrainingLoad     *float64  `db:"training_load"`
	Respiration      *float64  `db:"respiration"`
	SpO2             *float64  `db:"spo2"`

	// Derived
	DaysSinceLastActivity *float64 `db:"days_since_last_activity"`
	CurrentStreak         *int     `db:"current_streak"`
}

// TargetResult is the outcome of one named weekly target check
type TargetResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

// WeeklySummary is the aggregate for one Monday-Sunday week
type WeeklySummary struct {
	WeekStart time.Time `db:"week_start"`
	WeekEnd   time.Time `db:"week_end"`

	AvgRestingHR   *float64 `db:"avg_resting_hr"`
	AvgHRV         *float64 `db:"avg_hrv"`
	AvgStress      *float64 `db:"avg_stress"`
	AvgBodyBattery *float64 `db:"avg_body_battery"`
	AvgWeight      *float64 `db:"avg_weight"`
	AvgSleepHours  *float64 `db:"avg_sleep_hours"`
	AvgSleepScore  *float64 `db:"avg_sleep_score"`
	AvgDailySteps  *float64 `db:"avg_daily_steps"`

	TotalActivities  int `db:"total_activities"`
	Zone2Sessions    int `db:"zone2_sessions"`
	VO2MaxSessions   int `db:"vo2max_sessions"`
	StrengthSessions int `db:"strength_sessions"`
	OtherSessions    int `db:"other_sessions"`

	Zone2AvgHR        *float64 `db:"zone2_avg_hr"`
	Zone2TotalMinutes float64  `db:"zone2_total_minutes"`
	TotalTrainingLoad *float64 `db:"total_training_load"`

	LongestGapDays     *float64 `db:"longest_gap_days"`
	ActivityStreakEnd  int      `db:"activity_streak_end"`
	DaysWithActivity   int      `db:"days_with_activity"`
	MissedActivityDays int      `db:"missed_activity_days"`

	HitZone2Target    bool           `db:"hit_zone2_target"`
	HitStrengthTarget bool           `db:"hit_strength_target"`
	HitStepsTarget    bool           `db:"hit_steps_target"`
	NoLongGaps        bool           `db:"no_long_gaps"`
	Targets           []TargetResult `db:"targets"` // every configured check, in order
	PerfectWeek       bool           `db:"perfect_week"`
}

// FitnessTrend holds the daily training load model
type FitnessTrend struct {
	Date  time.Time `db:"date"`
	TRIMP float64   `db:"trimp"`
	CTL   float64   `db:"ctl"`
	ATL   float64   `db:"atl"`
	TSB   float64   `db:"tsb"`
}
