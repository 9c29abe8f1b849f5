package service

import (
	"math"
	"strconv"
	"strings"
	"time"

	"longevity/internal/analysis"
	"longevity/internal/garmin"
	"longevity/internal/store"
	"longevity/internal/strava"
)

// Providers, also used as external ID prefixes
const (
	ProviderStrava = "strava"
	ProviderGarmin = "garmin"
)

// convertStravaActivity converts a Strava API activity to a store activity
func convertStravaActivity(a strava.Activity) *store.Activity {
	start := analysis.WallClock(a.StartDateLocal)

	activityType := a.SportType
	if activityType == "" {
		activityType = a.Type
	}

	seconds := a.MovingTime
	if seconds == 0 {
		seconds = a.ElapsedTime
	}

	activity := &store.Activity{
		ExternalID:      ProviderStrava + "-" + strconv.FormatInt(a.ID, 10),
		Date:            analysis.DateOf(start),
		StartTime:       &start,
		Source:          store.SourceImported,
		Provider:        ProviderStrava,
		ActivityType:    activityType,
		Name:            a.Name,
		DurationMinutes: float64(seconds) / 60,
		DistanceKm:      kilometers(a.Distance),
		AvgHR:           roundPtr(a.AverageHeartrate),
		MaxHR:           roundPtr(a.MaxHeartrate),
		AvgPower:        roundPtr(a.AverageWatts),
		Calories:        roundPtr(a.Calories),
	}

	if a.TotalElevationGain > 0 {
		gain := a.TotalElevationGain
		activity.ElevationGain = &gain
	}

	return activity
}

// convertGarminActivity converts a Garmin activity listing entry
func convertGarminActivity(a garmin.Activity) *store.Activity {
	start := a.StartTimeLocal.Time

	activity := &store.Activity{
		ExternalID:      ProviderGarmin + "-" + strconv.FormatInt(a.ActivityID, 10),
		Date:            analysis.DateOf(start),
		Source:          store.SourceImported,
		Provider:        ProviderGarmin,
		ActivityType:    a.ActivityType.TypeKey,
		Name:            a.ActivityName,
		DurationMinutes: a.Duration / 60,
		AvgHR:           roundPtr(a.AverageHR),
		MaxHR:           roundPtr(a.MaxHR),
		AvgPower:        roundPtr(a.AvgPower),
		Calories:        roundPtr(a.Calories),
		ElevationGain:   positive(a.ElevationGain),
	}
	if !start.IsZero() {
		activity.StartTime = &start
	}
	if a.Distance != nil {
		activity.DistanceKm = kilometers(*a.Distance)
	}

	return activity
}

// wellnessDay is everything fetched from the wearable for one date
type wellnessDay struct {
	Summary *garmin.DailySummary
	Sleep   *garmin.SleepData
	HRV     *garmin.HRVData
	Body    *garmin.BodyComposition
}

func (w wellnessDay) empty() bool {
	return w.Summary == nil && w.Sleep == nil && w.HRV == nil && w.Body == nil
}

// convertWellness merges the per-date reports into one wellness sample.
// Anything not reported stays nil.
func convertWellness(date time.Time, w wellnessDay) *store.DailyMetrics {
	m := &store.DailyMetrics{Date: analysis.DateOf(date)}

	if s := w.Summary; s != nil {
		m.RestingHR = s.RestingHeartRate
		m.Stress = nonNegative(s.AverageStressLevel) // -1/-2 mean "not enough data"
		m.BodyBattery = s.BodyBatteryChargedValue
		m.Steps = s.TotalSteps
		m.Floors = roundPtr(s.FloorsAscended)
		m.IntensityMinutes = s.IntensityMinutes()
		m.TrainingLoad = s.TrainingLoad
		m.Respiration = s.AvgWakingRespiration
		m.SpO2 = s.AverageSpo2
	}

	if w.Sleep != nil {
		d := w.Sleep.DailySleepDTO
		m.SleepHours = hours(d.SleepTimeSeconds)
		m.DeepSleepHours = hours(d.DeepSleepSeconds)
		m.LightSleepHours = hours(d.LightSleepSeconds)
		m.REMSleepHours = hours(d.RemSleepSeconds)
		m.AwakeHours = hours(d.AwakeSleepSeconds)
		m.SleepScore = d.SleepScores.Overall.Value
	}

	if w.HRV != nil {
		m.HRV = w.HRV.HRVSummary.LastNightAvg
	}

	if w.Body != nil {
		m.Weight = w.Body.WeightKg()
	}

	return m
}

// NormalizeActivityType lowercases and trims a user-typed activity label
func NormalizeActivityType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func kilometers(meters float64) *float64 {
	if meters <= 0 {
		return nil
	}
	km := meters / 1000
	return &km
}

func hours(seconds *int) *float64 {
	if seconds == nil || *seconds <= 0 {
		return nil
	}
	h := float64(*seconds) / 3600
	return &h
}

func roundPtr(v *float64) *int {
	if v == nil || *v <= 0 {
		return nil
	}
	r := int(math.Round(*v))
	return &r
}

func positive(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}

func nonNegative(v *int) *int {
	if v == nil || *v < 0 {
		return nil
	}
	return v
}
