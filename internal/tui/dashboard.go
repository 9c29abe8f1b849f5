package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"longevity/internal/service"
	"longevity/internal/store"
)

// DashboardModel is the dashboard screen model
type DashboardModel struct {
	queryService *service.QueryService
	units        Units
	data         *service.DashboardData
	loading      bool
	err          error
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(qs *service.QueryService, units Units) DashboardModel {
	return DashboardModel{
		queryService: qs,
		units:        units,
		loading:      true,
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return m.loadData
}

func (m DashboardModel) loadData() tea.Msg {
	data, err := m.queryService.Dashboard(context.Background())
	return dashboardDataMsg{data: data, err: err}
}

type dashboardDataMsg struct {
	data *service.DashboardData
	err  error
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			return m, m.loadData
		}
	}
	return m, nil
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.loading {
		return "\n  Loading dashboard..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if m.data == nil {
		return "\n  No data available. Press 's' to sync."
	}

	var sections []string

	topRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderStatusCard(), "  ", m.renderWeekCard(), "  ", m.renderTodayCard())
	sections = append(sections, topRow)

	var charts []string
	if len(m.data.GapHistory) > 1 {
		charts = append(charts, m.renderGapChart())
	}
	if hasNonZero(m.data.StepsHistory) {
		charts = append(charts, m.renderStepsChart())
	}
	if len(charts) > 0 {
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, joinWithGap(charts)...))
	}

	sections = append(sections, m.renderRecentActivities())

	help := statusStyle.Render("Press 'r' to refresh, 's' to sync, '2' for activities, '3' for weekly summaries")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderStatusCard() string {
	title := cardTitleStyle.Render("Activity Status")
	st := m.data.Status

	lines := []string{
		RenderAlert(st.Alert),
		"",
		RenderMetric("Days since last", formatDays(st.DaysSinceLast)),
		RenderMetric("Current streak", fmt.Sprintf("%d", st.CurrentStreak)),
	}
	if st.LastActivityDate != nil {
		last := st.LastActivityType
		if st.LastActivityName != "" {
			last = truncateName(st.LastActivityName, 16)
		}
		lines = append(lines,
			RenderMetric("Last activity", last),
			mutedStyle.Render(formatAgo(*st.LastActivityDate, st.AsOf)),
		)
	} else {
		lines = append(lines, mutedStyle.Render("No activities recorded yet"))
	}

	if f := m.data.Fitness; f != nil {
		lines = append(lines,
			"",
			RenderMetric("Fitness (CTL)", fmt.Sprintf("%.0f", f.CTL)),
			RenderMetric("Form (TSB)", fmt.Sprintf("%.0f", f.TSB)),
			mutedStyle.Render(m.data.FormDescription),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderWeekCard() string {
	w := m.data.ThisWeek
	title := cardTitleStyle.Render("This Week (" + w.WeekStart.Format("Jan 02") + ")")

	lines := []string{
		RenderMetric("Activities", fmt.Sprintf("%d", w.TotalActivities)),
		RenderMetric("Zone 2", fmt.Sprintf("%d  (%s)", w.Zone2Sessions, formatMinutes(w.Zone2TotalMinutes))),
		RenderMetric("VO2 max", fmt.Sprintf("%d", w.VO2MaxSessions)),
		RenderMetric("Strength", fmt.Sprintf("%d", w.StrengthSessions)),
		RenderMetric("Longest gap", formatDays(w.LongestGapDays)),
		RenderMetric("Missed days", fmt.Sprintf("%d", w.MissedActivityDays)),
		"",
	}
	for _, t := range w.Targets {
		lines = append(lines, RenderCheck(t.Passed)+" "+t.Name)
	}
	if w.PerfectWeek {
		lines = append(lines, "", successStyle.Bold(true).Render("Perfect week!"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(36).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderTodayCard() string {
	title := cardTitleStyle.Render("Today")

	t := m.data.Today
	if t == nil {
		return cardStyle.Width(32).Render(lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("No wellness data")))
	}

	lines := []string{
		RenderMetric("Steps", formatSteps(t.Steps)),
		RenderMetric("Resting HR", formatIntPtr(t.RestingHR)),
		RenderMetric("HRV", formatFloatPtr(t.HRV, 0)),
		RenderMetric("Sleep", formatFloatPtr(t.SleepHours, 1)+" h"),
		RenderMetric("Body battery", formatIntPtr(t.BodyBattery)),
		RenderMetric("Stress", formatIntPtr(t.Stress)),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(32).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderGapChart() string {
	title := cardTitleStyle.Render("Days Between Activities")

	graph := asciigraph.Plot(m.data.GapHistory,
		asciigraph.Height(8),
		asciigraph.Width(40),
		asciigraph.Precision(1),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m DashboardModel) renderStepsChart() string {
	labels := m.data.StepsLabels
	caption := ""
	if len(labels) > 0 {
		caption = labels[0] + " - " + labels[len(labels)-1]
	}

	title := cardTitleStyle.Render("Daily Steps")
	graph := asciigraph.Plot(m.data.StepsHistory,
		asciigraph.Height(8),
		asciigraph.Width(40),
		asciigraph.Precision(0),
		asciigraph.Caption(caption),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m DashboardModel) renderRecentActivities() string {
	title := cardTitleStyle.Render("Recent Activities")

	if len(m.data.RecentActivities) == 0 {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "No activities yet"))
	}

	rows := []string{activityHeader(m.units)}
	for i, a := range m.data.RecentActivities {
		if i >= 5 {
			break
		}
		rows = append(rows, tableRowStyle.Render(activityRow(a, m.units)))
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}

func activityHeader(u Units) string {
	return tableHeaderStyle.Render(fmt.Sprintf("%-10s  %-22s  %-9s  %8s  %8s  %6s  %6s",
		"Date", "Name", "Zone", "Duration", u.DistanceLabel(), "Avg HR", "Gap"))
}

func activityRow(a store.Activity, u Units) string {
	name := a.Name
	if name == "" {
		name = a.ActivityType
	}
	zone := a.ZoneClassification
	if zone == "" {
		zone = "-"
	}
	return fmt.Sprintf("%-10s  %-22s  %-9s  %8s  %8s  %6s  %6s",
		a.Date.Format("Jan 02"),
		truncateName(name, 22),
		zone,
		formatMinutes(a.DurationMinutes),
		u.FormatDistanceValue(a.DistanceKm),
		formatIntPtr(a.AvgHR),
		formatDays(a.DaysSincePrevious),
	)
}

func hasNonZero(values []float64) bool {
	for _, v := range values {
		if v != 0 {
			return true
		}
	}
	return false
}

func joinWithGap(blocks []string) []string {
	out := make([]string, 0, len(blocks)*2)
	for i, b := range blocks {
		if i > 0 {
			out = append(out, "  ")
		}
		out = append(out, b)
	}
	return out
}
