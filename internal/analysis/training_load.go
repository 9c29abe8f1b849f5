package analysis

import (
	"math"
	"sort"
	"time"

	"longevity/internal/config"
	"longevity/internal/store"
)

// HRZones holds the heart rate reserve bounds used for training load
type HRZones struct {
	RestingHR float64
	MaxHR     float64
}

// DefaultZones returns sensible defaults if not configured
func DefaultZones() HRZones {
	return HRZones{
		RestingHR: 50,
		MaxHR:     185,
	}
}

// ZonesFromConfig maps the athlete config section
func ZonesFromConfig(c config.AthleteConfig) HRZones {
	return HRZones{RestingHR: c.RestingHR, MaxHR: c.MaxHR}
}

// TRIMP calculates Training Impulse (Banister model)
// TRIMP = duration (min) * ΔHR ratio * e^(b * ΔHR ratio)
// where b = 1.92 for men, 1.67 for women (using male default).
// Activities without an average HR carry no load.
func TRIMP(activity store.Activity, zones HRZones) float64 {
	if activity.AvgHR == nil {
		return 0
	}

	hrReserve := zones.MaxHR - zones.RestingHR
	if hrReserve <= 0 {
		return 0
	}

	hrRatio := (float64(*activity.AvgHR) - zones.RestingHR) / hrReserve
	hrRatio = math.Max(0, math.Min(1, hrRatio))

	b := 1.92

	return activity.DurationMinutes * hrRatio * math.Exp(b*hrRatio)
}

// DailyLoad represents training load for a single day
type DailyLoad struct {
	Date  time.Time
	TRIMP float64
}

// DailyLoads sums TRIMP per activity date
func DailyLoads(activities []store.Activity, zones HRZones) []DailyLoad {
	loads := make([]DailyLoad, 0, len(activities))
	for _, a := range activities {
		loads = append(loads, DailyLoad{Date: a.Date, TRIMP: TRIMP(a, zones)})
	}
	return loads
}

// CalculateFitnessTrend computes CTL/ATL/TSB from daily loads, one entry per
// day from the first load through the later of the last load and through.
// Days without activity decay with zero load.
func CalculateFitnessTrend(dailyLoads []DailyLoad, through time.Time) []store.FitnessTrend {
	if len(dailyLoads) == 0 {
		return nil
	}

	loads := make([]DailyLoad, len(dailyLoads))
	copy(loads, dailyLoads)
	sort.Slice(loads, func(i, j int) bool {
		return loads[i].Date.Before(loads[j].Date)
	})

	// EMA decay constants
	ctlDecay := 2.0 / (42.0 + 1.0) // 42-day time constant
	atlDecay := 2.0 / (7.0 + 1.0)  // 7-day time constant

	loadMap := make(map[string]float64)
	for _, dl := range loads {
		loadMap[dl.Date.Format("2006-01-02")] += dl.TRIMP // Sum multiple activities on same day
	}

	startDate := DateOf(loads[0].Date)
	endDate := DateOf(loads[len(loads)-1].Date)
	if t := DateOf(through); t.After(endDate) {
		endDate = t
	}

	var trend []store.FitnessTrend
	var ctl, atl float64
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		trimp := loadMap[d.Format("2006-01-02")]

		ctl = ctl + ctlDecay*(trimp-ctl)
		atl = atl + atlDecay*(trimp-atl)

		trend = append(trend, store.FitnessTrend{
			Date:  d,
			TRIMP: trimp,
			CTL:   ctl,
			ATL:   atl,
			TSB:   ctl - atl,
		})
	}

	return trend
}

// FormDescription returns a human-readable description of TSB
func FormDescription(tsb float64) string {
	switch {
	case tsb > 25:
		return "Very fresh (possibly detrained)"
	case tsb > 10:
		return "Fresh"
	case tsb > 0:
		return "Neutral - good for training"
	case tsb > -10:
		return "Slightly fatigued"
	case tsb > -25:
		return "Tired but building fitness"
	default:
		return "Very fatigued - rest needed"
	}
}
