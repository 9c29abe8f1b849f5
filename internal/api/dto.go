package api

import (
	"time"

	"longevity/internal/analysis"
	"longevity/internal/service"
	"longevity/internal/store"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05"
)

// CreateActivityRequest is the body of POST /api/activities
type CreateActivityRequest struct {
	Date            string   `json:"date" binding:"required"` // YYYY-MM-DD
	StartTime       string   `json:"start_time"`              // optional wall clock, YYYY-MM-DDTHH:MM:SS
	ActivityType    string   `json:"activity_type"`           // defaults to strength
	Name            string   `json:"name"`                    // workout name
	DurationMinutes float64  `json:"duration_minutes" binding:"required,gt=0"`
	DistanceKm      *float64 `json:"distance_km" binding:"omitempty,gte=0"`
	AvgHR           *int     `json:"avg_hr" binding:"omitempty,gt=0,lte=250"`
	PerceivedEffort *int     `json:"perceived_effort" binding:"omitempty,min=1,max=10"`
	Notes           string   `json:"notes"`
}

// ActivityResponse is an activity as returned by the API
type ActivityResponse struct {
	ID                 int64    `json:"id"`
	ExternalID         string   `json:"external_id"`
	Date               string   `json:"date"`
	StartTime          *string  `json:"start_time,omitempty"`
	Source             string   `json:"source"`
	Provider           string   `json:"provider"`
	ActivityType       string   `json:"activity_type"`
	Name               string   `json:"name,omitempty"`
	DurationMinutes    float64  `json:"duration_minutes"`
	DistanceKm         *float64 `json:"distance_km,omitempty"`
	AvgHR              *int     `json:"avg_hr,omitempty"`
	MaxHR              *int     `json:"max_hr,omitempty"`
	AvgPower           *int     `json:"avg_power,omitempty"`
	Calories           *int     `json:"calories,omitempty"`
	ElevationGain      *float64 `json:"elevation_gain,omitempty"`
	PerceivedEffort    *int     `json:"perceived_effort,omitempty"`
	Notes              string   `json:"notes,omitempty"`
	ZoneClassification string   `json:"zone_classification"`
	HoursSincePrevious *float64 `json:"hours_since_previous"`
	DaysSincePrevious  *float64 `json:"days_since_previous"`
}

// DailyMetricsResponse is one wellness sample
type DailyMetricsResponse struct {
	Date                  string   `json:"date"`
	RestingHR             *int     `json:"resting_hr"`
	HRV                   *float64 `json:"hrv"`
	Stress                *int     `json:"stress"`
	BodyBattery           *int     `json:"body_battery"`
	Weight                *float64 `json:"weight"`
	SleepHours            *float64 `json:"sleep_hours"`
	SleepScore            *int     `json:"sleep_score"`
	DeepSleepHours        *float64 `json:"deep_sleep_hours"`
	LightSleepHours       *float64 `json:"light_sleep_hours"`
	REMSleepHours         *float64 `json:"rem_sleep_hours"`
	AwakeHours            *float64 `json:"awake_hours"`
	Steps                 *int     `json:"steps"`
	Floors                *int     `json:"floors"`
	IntensityMinutes      *int     `json:"intensity_minutes"`
	TrainingLoad          *float64 `json:"training_load"`
	Respiration           *float64 `json:"respiration"`
	SpO2                  *float64 `json:"spo2"`
	DaysSinceLastActivity *float64 `json:"days_since_last_activity"`
	CurrentStreak         *int     `json:"current_streak"`
}

// WeeklySummaryResponse is one week of aggregates and target results
type WeeklySummaryResponse struct {
	WeekStart          string               `json:"week_start"`
	WeekEnd            string               `json:"week_end"`
	AvgRestingHR       *float64             `json:"avg_resting_hr"`
	AvgHRV             *float64             `json:"avg_hrv"`
	AvgStress          *float64             `json:"avg_stress"`
	AvgBodyBattery     *float64             `json:"avg_body_battery"`
	AvgWeight          *float64             `json:"avg_weight"`
	AvgSleepHours      *float64             `json:"avg_sleep_hours"`
	AvgSleepScore      *float64             `json:"avg_sleep_score"`
	AvgDailySteps      *float64             `json:"avg_daily_steps"`
	TotalActivities    int                  `json:"total_activities"`
	Zone2Sessions      int                  `json:"zone2_sessions"`
	VO2MaxSessions     int                  `json:"vo2max_sessions"`
	StrengthSessions   int                  `json:"strength_sessions"`
	OtherSessions      int                  `json:"other_sessions"`
	Zone2AvgHR         *float64             `json:"zone2_avg_hr"`
	Zone2TotalMinutes  float64              `json:"zone2_total_minutes"`
	TotalTrainingLoad  *float64             `json:"total_training_load"`
	LongestGapDays     *float64             `json:"longest_gap_days"`
	ActivityStreakEnd  int                  `json:"activity_streak_end"`
	DaysWithActivity   int                  `json:"days_with_activity"`
	MissedActivityDays int                  `json:"missed_activity_days"`
	HitZone2Target     bool                 `json:"hit_zone2_target"`
	HitStrengthTarget  bool                 `json:"hit_strength_target"`
	HitStepsTarget     bool                 `json:"hit_steps_target"`
	NoLongGaps         bool                 `json:"no_long_gaps"`
	Targets            []store.TargetResult `json:"targets"`
	PerfectWeek        bool                 `json:"perfect_week"`
}

// SyncResponse summarizes a sync run
type SyncResponse struct {
	DaysSynced        int                   `json:"days_synced"`
	ActivitiesFetched int                   `json:"activities_fetched"`
	ActivitiesStored  int                   `json:"activities_stored"`
	DuplicatesSkipped int                   `json:"duplicates_skipped"`
	Rejected          []string              `json:"rejected"`
	Errors            []string              `json:"errors"`
	Status            *service.StatusReport `json:"status"`
}

// RecomputeResponse summarizes a recompute pass
type RecomputeResponse struct {
	Activities int                   `json:"activities"`
	Weeks      int                   `json:"weeks"`
	Rejected   []string              `json:"rejected"`
	Status     *service.StatusReport `json:"status"`
}

func activityToResponse(a store.Activity) ActivityResponse {
	r := ActivityResponse{
		ID:                 a.ID,
		ExternalID:         a.ExternalID,
		Date:               a.Date.Format(dateLayout),
		Source:             a.Source,
		Provider:           a.Provider,
		ActivityType:       a.ActivityType,
		Name:               a.Name,
		DurationMinutes:    a.DurationMinutes,
		DistanceKm:         a.DistanceKm,
		AvgHR:              a.AvgHR,
		MaxHR:              a.MaxHR,
		AvgPower:           a.AvgPower,
		Calories:           a.Calories,
		ElevationGain:      a.ElevationGain,
		PerceivedEffort:    a.PerceivedEffort,
		Notes:              a.Notes,
		ZoneClassification: a.ZoneClassification,
		HoursSincePrevious: a.HoursSincePrevious,
		DaysSincePrevious:  a.DaysSincePrevious,
	}
	if a.StartTime != nil {
		s := a.StartTime.Format(timestampLayout)
		r.StartTime = &s
	}
	return r
}

func dailyToResponse(m store.DailyMetrics) DailyMetricsResponse {
	return DailyMetricsResponse{
		Date:                  m.Date.Format(dateLayout),
		RestingHR:             m.RestingHR,
		HRV:                   m.HRV,
		Stress:                m.Stress,
		BodyBattery:           m.BodyBattery,
		Weight:                m.Weight,
		SleepHours:            m.SleepHours,
		SleepScore:            m.SleepScore,
		DeepSleepHours:        m.DeepSleepHours,
		LightSleepHours:       m.LightSleepHours,
		REMSleepHours:         m.REMSleepHours,
		AwakeHours:            m.AwakeHours,
		Steps:                 m.Steps,
		Floors:                m.Floors,
		IntensityMinutes:      m.IntensityMinutes,
		TrainingLoad:          m.TrainingLoad,
		Respiration:           m.Respiration,
		SpO2:                  m.SpO2,
		DaysSinceLastActivity: m.DaysSinceLastActivity,
		CurrentStreak:         m.CurrentStreak,
	}
}

func weeklyToResponse(w store.WeeklySummary) WeeklySummaryResponse {
	return WeeklySummaryResponse{
		WeekStart:          w.WeekStart.Format(dateLayout),
		WeekEnd:            w.WeekEnd.Format(dateLayout),
		AvgRestingHR:       w.AvgRestingHR,
		AvgHRV:             w.AvgHRV,
		AvgStress:          w.AvgStress,
		AvgBodyBattery:     w.AvgBodyBattery,
		AvgWeight:          w.AvgWeight,
		AvgSleepHours:      w.AvgSleepHours,
		AvgSleepScore:      w.AvgSleepScore,
		AvgDailySteps:      w.AvgDailySteps,
		TotalActivities:    w.TotalActivities,
		Zone2Sessions:      w.Zone2Sessions,
		VO2MaxSessions:     w.VO2MaxSessions,
		StrengthSessions:   w.StrengthSessions,
		OtherSessions:      w.OtherSessions,
		Zone2AvgHR:         w.Zone2AvgHR,
		Zone2TotalMinutes:  w.Zone2TotalMinutes,
		TotalTrainingLoad:  w.TotalTrainingLoad,
		LongestGapDays:     w.LongestGapDays,
		ActivityStreakEnd:  w.ActivityStreakEnd,
		DaysWithActivity:   w.DaysWithActivity,
		MissedActivityDays: w.MissedActivityDays,
		HitZone2Target:     w.HitZone2Target,
		HitStrengthTarget:  w.HitStrengthTarget,
		HitStepsTarget:     w.HitStepsTarget,
		NoLongGaps:         w.NoLongGaps,
		Targets:            w.Targets,
		PerfectWeek:        w.PerfectWeek,
	}
}

func rejectionStrings(rejected []analysis.Rejection) []string {
	out := make([]string, 0, len(rejected))
	for _, r := range rejected {
		out = append(out, r.Record+": "+r.Err.Error())
	}
	return out
}

func parseManual(req CreateActivityRequest) (service.ManualActivity, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return service.ManualActivity{}, err
	}

	m := service.ManualActivity{
		Date:            date,
		ActivityType:    req.ActivityType,
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		DistanceKm:      req.DistanceKm,
		AvgHR:           req.AvgHR,
		PerceivedEffort: req.PerceivedEffort,
		Notes:           req.Notes,
	}
	if req.StartTime != "" {
		start, err := time.Parse(timestampLayout, req.StartTime)
		if err != nil {
			return service.ManualActivity{}, err
		}
		m.StartTime = &start
	}
	return m, nil
}

// FitnessTrendResponse is one day of the CTL/ATL/TSB model
type FitnessTrendResponse struct {
	Date  string  `json:"date"`
	TRIMP float64 `json:"trimp"`
	CTL   float64 `json:"ctl"`
	ATL   float64 `json:"atl"`
	TSB   float64 `json:"tsb"`
}

func trendToResponse(t store.FitnessTrend) FitnessTrendResponse {
	return FitnessTrendResponse{
		Date:  t.Date.Format(dateLayout),
		TRIMP: t.TRIMP,
		CTL:   t.CTL,
		ATL:   t.ATL,
		TSB:   t.TSB,
	}
}
