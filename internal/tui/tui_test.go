package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"longevity/internal/analysis"
	"longevity/internal/config"
	"longevity/internal/service"
	"longevity/internal/store"
)

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "45m", formatMinutes(45))
	assert.Equal(t, "1h 05m", formatMinutes(65))
	assert.Equal(t, "2h 00m", formatMinutes(119.6))

	assert.Equal(t, "-", formatDays(nil))
	assert.Equal(t, "1.5d", formatDays(floatPtr(1.5)))

	assert.Equal(t, "-", formatSteps(nil))
	assert.Equal(t, "12,345", formatSteps(intPtr(12345)))

	assert.Equal(t, "Morning Run", truncateName("Morning Run", 20))
	assert.Equal(t, "Very long w...", truncateName("Very long workout name", 14))
}

func TestFormatAgo(t *testing.T) {
	now := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "3 days ago", formatAgo(now.AddDate(0, 0, -3), now))
}

func TestUnitsFormatDistance(t *testing.T) {
	km := NewUnits(config.DisplayConfig{DistanceUnit: "km"})
	mi := NewUnits(config.DisplayConfig{DistanceUnit: "mi"})

	assert.Equal(t, "-", km.FormatDistance(nil))
	assert.Equal(t, "10.0 km", km.FormatDistance(floatPtr(10)))
	assert.Equal(t, "6.2 mi", mi.FormatDistance(floatPtr(10)))
	assert.Equal(t, "mi", mi.DistanceLabel())
}

func TestRenderAlert(t *testing.T) {
	assert.Contains(t, RenderAlert(analysis.AlertGreen), "GREEN")
	assert.Contains(t, RenderAlert(analysis.AlertRed), "RED")
	assert.Contains(t, RenderAlert(analysis.AlertNone), "NONE")
}

func TestWaitForSyncDeliversProgressThenResult(t *testing.T) {
	updates := make(chan service.SyncProgress, 2)
	done := make(chan SyncDoneMsg, 1)

	updates <- service.SyncProgress{Phase: "wellness", Total: 3, Completed: 1}
	close(updates)
	done <- SyncDoneMsg{Result: &service.SyncResult{DaysSynced: 3}}

	msg := waitForSync(updates, done)()
	progress, ok := msg.(syncProgressMsg)
	require.True(t, ok)
	assert.Equal(t, "wellness", progress.progress.Phase)

	msg = waitForSync(progress.updates, progress.done)()
	result, ok := msg.(SyncDoneMsg)
	require.True(t, ok)
	assert.Equal(t, 3, result.Result.DaysSynced)
}

func TestSyncViewShowsSummary(t *testing.T) {
	m := NewSyncModel(nil)
	updated, cmd := m.Update(SyncDoneMsg{Result: &service.SyncResult{
		DaysSynced:        7,
		ActivitiesFetched: 4,
		ActivitiesStored:  3,
		DuplicatesSkipped: 1,
		Errors:            []error{errors.New("wellness: 2024-03-01: timeout")},
	}})
	require.NotNil(t, cmd)
	assert.IsType(t, SyncCompleteMsg{}, cmd())

	view := updated.(SyncModel).View()
	assert.Contains(t, view, "Sync complete")
	assert.Contains(t, view, "7 days of wellness data synced")
	assert.Contains(t, view, "3 new activities (4 fetched)")
	assert.Contains(t, view, "1 cross-provider duplicates skipped")
	assert.Contains(t, view, "1 errors occurred")
}

func TestWeeklyViewShowsSelectedWeek(t *testing.T) {
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	weeks := []store.WeeklySummary{
		{
			WeekStart:       monday,
			WeekEnd:         monday.AddDate(0, 0, 6),
			TotalActivities: 5,
			Zone2Sessions:   3,
			PerfectWeek:     true,
			Targets: []store.TargetResult{
				{Name: "zone2", Passed: true},
				{Name: "steps", Passed: false},
			},
		},
		{WeekStart: monday.AddDate(0, 0, -7), WeekEnd: monday.AddDate(0, 0, -1), TotalActivities: 1},
	}

	m := NewWeeklyModel(nil)
	updated, _ := m.Update(weeksLoadedMsg{weeks: weeks})
	view := updated.(WeeklyModel).View()

	assert.Contains(t, view, "Weekly Summaries - 1-2 of 2")
	assert.Contains(t, view, "Week of Mar 04 - Mar 10")
	assert.Contains(t, view, "zone2")
	assert.Contains(t, view, "steps")

	updated, _ = updated.Update(key("j"))
	assert.Equal(t, 1, updated.(WeeklyModel).cursor)
	assert.Contains(t, updated.(WeeklyModel).View(), "Week of Feb 26 - Mar 03")
}

func TestActivitiesDeleteNeedsConfirmation(t *testing.T) {
	m := NewActivitiesModel(nil, nil, NewUnits(config.DisplayConfig{}))
	updated, _ := m.Update(activitiesLoadedMsg{
		activities: []store.Activity{
			{ID: 1, Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), ActivityType: "strength", DurationMinutes: 45},
		},
		total: 1,
	})

	updated, cmd := updated.Update(key("d"))
	assert.Nil(t, cmd)
	assert.True(t, updated.(ActivitiesModel).confirming)
	assert.Contains(t, updated.(ActivitiesModel).View(), "Delete strength on 2024-03-05?")

	updated, cmd = updated.Update(key("n"))
	assert.Nil(t, cmd)
	assert.False(t, updated.(ActivitiesModel).confirming)
}

func TestDashboardViewRendersStatusAndWeek(t *testing.T) {
	asOf := time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)
	last := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	m := NewDashboardModel(nil, NewUnits(config.DisplayConfig{}))
	updated, _ := m.Update(dashboardDataMsg{data: &service.DashboardData{
		Status: &service.StatusReport{
			AsOf:             asOf,
			DaysSinceLast:    floatPtr(0.9),
			CurrentStreak:    4,
			Alert:            analysis.AlertGreen,
			LastActivityDate: &last,
			LastActivityType: "strength",
		},
		ThisWeek: store.WeeklySummary{
			WeekStart:        time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
			TotalActivities:  2,
			StrengthSessions: 2,
			Targets:          []store.TargetResult{{Name: "strength", Passed: true}},
		},
		GapHistory: []float64{1, 2.5, 0.8},
	}})

	view := updated.(DashboardModel).View()
	assert.Contains(t, view, "GREEN")
	assert.Contains(t, view, "0.9d")
	assert.Contains(t, view, "This Week (Mar 04)")
	assert.Contains(t, view, "No wellness data")
	assert.Contains(t, view, "Days Between Activities")
	assert.Contains(t, view, "No activities yet")
}

func TestAppRoutesLoadResultsToTheirScreen(t *testing.T) {
	app := NewApp(nil, nil, config.DisplayConfig{})
	require.Equal(t, ScreenDashboard, app.screen)

	_, _ = app.Update(weeksLoadedMsg{weeks: []store.WeeklySummary{{TotalActivities: 2}}})
	assert.Equal(t, ScreenDashboard, app.screen)
	assert.Len(t, app.weekly.weeks, 1)
	assert.False(t, app.weekly.loading)
}

func TestAppNavigation(t *testing.T) {
	app := NewApp(nil, nil, config.DisplayConfig{})

	_, cmd := app.Update(key("3"))
	assert.Equal(t, ScreenWeekly, app.screen)
	assert.NotNil(t, cmd)

	_, _ = app.Update(key("?"))
	assert.Equal(t, ScreenHelp, app.screen)

	_, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ScreenWeekly, app.screen)

	_, cmd = app.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
