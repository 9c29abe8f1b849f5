package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"longevity/internal/store"
)

func TestDefaultZones(t *testing.T) {
	zones := DefaultZones()

	assert.Equal(t, 50.0, zones.RestingHR)
	assert.Equal(t, 185.0, zones.MaxHR)
}

func TestTRIMP(t *testing.T) {
	defaultZones := DefaultZones()

	tests := []struct {
		name     string
		activity store.Activity
		zones    HRZones
		expected float64
		delta    float64
	}{
		{
			name: "60 minutes at 150",
			activity: store.Activity{
				DurationMinutes: 60,
				AvgHR:           intPtr(150),
			},
			zones: defaultZones,
			// hrRatio = (150-50)/(185-50) = 0.741
			// TRIMP = 60 * 0.741 * e^(1.92*0.741)
			expected: 184.3,
			delta:    1,
		},
		{
			name:     "no HR data available",
			activity: store.Activity{DurationMinutes: 60},
			zones:    defaultZones,
			expected: 0,
		},
		{
			name: "HR below resting clamps to zero",
			activity: store.Activity{
				DurationMinutes: 60,
				AvgHR:           intPtr(40),
			},
			zones:    defaultZones,
			expected: 0,
		},
		{
			name: "invalid zones",
			activity: store.Activity{
				DurationMinutes: 60,
				AvgHR:           intPtr(150),
			},
			zones:    HRZones{RestingHR: 180, MaxHR: 170},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, TRIMP(tt.activity, tt.zones), tt.delta+1e-9)
		})
	}
}

func TestCalculateFitnessTrend(t *testing.T) {
	loads := []DailyLoad{
		{Date: date(2024, 1, 3), TRIMP: 50},
		{Date: date(2024, 1, 1), TRIMP: 100},
		{Date: date(2024, 1, 1), TRIMP: 20},
	}

	trend := CalculateFitnessTrend(loads, date(2024, 1, 5))
	require.Len(t, trend, 5)

	assert.Equal(t, date(2024, 1, 1), trend[0].Date)
	assert.Equal(t, 120.0, trend[0].TRIMP)
	assert.InDelta(t, 120*2.0/43, trend[0].CTL, 1e-9)
	assert.InDelta(t, 120*2.0/8, trend[0].ATL, 1e-9)
	assert.InDelta(t, trend[0].CTL-trend[0].ATL, trend[0].TSB, 1e-9)

	// Rest days decay fatigue faster than fitness
	assert.Equal(t, 0.0, trend[4].TRIMP)
	assert.Less(t, trend[4].ATL, trend[2].ATL)
	assert.Greater(t, trend[4].TSB, trend[2].TSB)

	// Input is not reordered
	assert.Equal(t, date(2024, 1, 3), loads[0].Date)

	assert.Nil(t, CalculateFitnessTrend(nil, date(2024, 1, 5)))
}

func TestFormDescription(t *testing.T) {
	assert.Equal(t, "Fresh", FormDescription(15))
	assert.Equal(t, "Very fatigued - rest needed", FormDescription(-40))
	assert.Equal(t, "Neutral - good for training", FormDescription(0.5))
}
