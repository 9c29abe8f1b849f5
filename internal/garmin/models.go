package garmin

import (
	"strings"
	"time"
)

// localTimeLayout is how Garmin encodes wall-clock timestamps
const localTimeLayout = "2006-01-02 15:04:05"

// LocalTime is a wall-clock timestamp without zone, carried in UTC
type LocalTime struct {
	time.Time
}

func (t *LocalTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	parsed, err := time.ParseInLocation(localTimeLayout, s, time.UTC)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// DailySummary is the per-day user summary
type DailySummary struct {
	CalendarDate             string   `json:"calendarDate"`
	TotalSteps               *int     `json:"totalSteps"`
	RestingHeartRate         *int     `json:"restingHeartRate"`
	MaxHeartRate             *int     `json:"maxHeartRate"`
	AverageStressLevel       *int     `json:"averageStressLevel"`
	BodyBatteryChargedValue  *int     `json:"bodyBatteryChargedValue"`
	FloorsAscended           *float64 `json:"floorsAscended"`
	ModerateIntensityMinutes *int     `json:"moderateIntensityMinutes"`
	VigorousIntensityMinutes *int     `json:"vigorousIntensityMinutes"`
	AverageSpo2              *float64 `json:"averageSpo2"`
	AvgWakingRespiration     *float64 `json:"avgWakingRespirationValue"`
	TrainingLoad             *float64 `json:"trainingLoad"`
}

// IntensityMinutes weights vigorous minutes double, as Garmin does
func (s *DailySummary) IntensityMinutes() *int {
	if s.ModerateIntensityMinutes == nil && s.VigorousIntensityMinutes == nil {
		return nil
	}
	total := 0
	if s.ModerateIntensityMinutes != nil {
		total += *s.ModerateIntensityMinutes
	}
	if s.VigorousIntensityMinutes != nil {
		total += 2 * *s.VigorousIntensityMinutes
	}
	return &total
}

// SleepData wraps the nightly sleep summary
type SleepData struct {
	DailySleepDTO DailySleep `json:"dailySleepDTO"`
}

// DailySleep holds sleep stage durations in seconds
type DailySleep struct {
	CalendarDate      string      `json:"calendarDate"`
	SleepTimeSeconds  *int        `json:"sleepTimeSeconds"`
	DeepSleepSeconds  *int        `json:"deepSleepSeconds"`
	LightSleepSeconds *int        `json:"lightSleepSeconds"`
	RemSleepSeconds   *int        `json:"remSleepSeconds"`
	AwakeSleepSeconds *int        `json:"awakeSleepSeconds"`
	SleepScores       SleepScores `json:"sleepScores"`
}

type SleepScores struct {
	Overall struct {
		Value *int `json:"value"`
	} `json:"overall"`
}

// HRVData is the overnight heart rate variability report
type HRVData struct {
	HRVSummary struct {
		CalendarDate string   `json:"calendarDate"`
		LastNightAvg *float64 `json:"lastNightAvg"`
		WeeklyAvg    *float64 `json:"weeklyAvg"`
		Status       string   `json:"status"`
	} `json:"hrvSummary"`
}

// BodyComposition is the weight report for a date range
type BodyComposition struct {
	TotalAverage struct {
		Weight *float64 `json:"weight"` // grams
	} `json:"totalAverage"`
}

// WeightKg converts the reported weight from grams
func (b *BodyComposition) WeightKg() *float64 {
	if b.TotalAverage.Weight == nil || *b.TotalAverage.Weight <= 0 {
		return nil
	}
	kg := *b.TotalAverage.Weight / 1000
	return &kg
}

// Activity is an entry of the activity search listing
type Activity struct {
	ActivityID     int64        `json:"activityId"`
	ActivityName   string       `json:"activityName"`
	ActivityType   ActivityType `json:"activityType"`
	StartTimeLocal LocalTime    `json:"startTimeLocal"`
	Duration       float64      `json:"duration"` // seconds
	Distance       *float64     `json:"distance"` // meters
	AverageHR      *float64     `json:"averageHR"`
	MaxHR          *float64     `json:"maxHR"`
	Calories       *float64     `json:"calories"`
	ElevationGain  *float64     `json:"elevationGain"` // meters
	AvgPower       *float64     `json:"avgPower"`
}

type ActivityType struct {
	TypeKey string `json:"typeKey"`
}
