package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"longevity/internal/service"
	"longevity/internal/store"
)

const weeklyHistory = 52

// WeeklyModel is the weekly summaries screen model
type WeeklyModel struct {
	queryService *service.QueryService
	weeks        []store.WeeklySummary // newest first
	loading      bool
	err          error
	cursor       int
	offset       int
	pageSize     int
}

// NewWeeklyModel creates a new weekly summaries model
func NewWeeklyModel(qs *service.QueryService) WeeklyModel {
	return WeeklyModel{
		queryService: qs,
		loading:      true,
		pageSize:     12,
	}
}

// Init initializes the weekly screen
func (m WeeklyModel) Init() tea.Cmd {
	return m.loadWeeks
}

type weeksLoadedMsg struct {
	weeks []store.WeeklySummary
	err   error
}

func (m WeeklyModel) loadWeeks() tea.Msg {
	weeks, err := m.queryService.WeeklySummaries(context.Background(), weeklyHistory)
	return weeksLoadedMsg{weeks: weeks, err: err}
}

// Update handles messages
func (m WeeklyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case weeksLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.weeks = msg.weeks
		m.cursor = 0
		m.offset = 0

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadWeeks
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			} else if m.offset > 0 {
				m.offset -= m.pageSize
				m.cursor = m.pageSize - 1
			}
		case "down", "j":
			if m.cursor < m.visibleCount()-1 {
				m.cursor++
			} else if m.offset+m.visibleCount() < len(m.weeks) {
				m.offset += m.pageSize
				m.cursor = 0
			}
		case "pgup":
			if m.offset > 0 {
				m.offset = max(m.offset-m.pageSize, 0)
				m.cursor = 0
			}
		case "pgdown":
			if m.offset+m.pageSize < len(m.weeks) {
				m.offset += m.pageSize
				m.cursor = 0
			}
		}
	}
	return m, nil
}

func (m WeeklyModel) visibleCount() int {
	return min(len(m.weeks)-m.offset, m.pageSize)
}

// View renders the weekly summaries screen
func (m WeeklyModel) View() string {
	if m.loading {
		return "\n  Loading weekly summaries..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if len(m.weeks) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			cardTitleStyle.Render("Weekly Summaries"),
			"\n  No data available. Sync or add some activities first.")
	}

	var sections []string

	end := m.offset + m.visibleCount()
	title := cardTitleStyle.Render(fmt.Sprintf("Weekly Summaries - %d-%d of %d", m.offset+1, end, len(m.weeks)))
	sections = append(sections, title)

	header := tableHeaderStyle.Render(fmt.Sprintf("   %-12s  %4s  %5s  %5s  %5s  %8s  %6s  %6s  %7s",
		"Week", "Acts", "Z2", "VO2", "Str", "Steps", "Gap", "Missed", "Perfect"))
	sections = append(sections, header)

	for i := m.offset; i < end; i++ {
		w := m.weeks[i]

		cursor := "  "
		if i-m.offset == m.cursor {
			cursor = "> "
		}

		perfect := " "
		if w.PerfectWeek {
			perfect = "★"
		}

		row := fmt.Sprintf("%s%-12s  %4d  %5d  %5d  %5d  %8s  %6s  %6d  %7s",
			cursor,
			w.WeekStart.Format("Jan 02 2006"),
			w.TotalActivities,
			w.Zone2Sessions,
			w.VO2MaxSessions,
			w.StrengthSessions,
			formatFloatPtr(w.AvgDailySteps, 0),
			formatDays(w.LongestGapDays),
			w.MissedActivityDays,
			perfect,
		)

		if i-m.offset == m.cursor {
			sections = append(sections, tableSelectedStyle.Render(row))
		} else {
			sections = append(sections, tableRowStyle.Render(row))
		}
	}

	sections = append(sections, m.renderSelected())

	help := statusStyle.Render("\n  j/k: navigate  pgup/pgdn: page  r: refresh")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m WeeklyModel) renderSelected() string {
	idx := m.offset + m.cursor
	if idx >= len(m.weeks) {
		return ""
	}
	w := m.weeks[idx]

	var lines []string
	lines = append(lines, "")
	lines = append(lines, sectionTitleStyle.Render(fmt.Sprintf("Week of %s - %s",
		w.WeekStart.Format("Jan 02"), w.WeekEnd.Format("Jan 02"))))

	for _, t := range w.Targets {
		lines = append(lines, "  "+RenderCheck(t.Passed)+" "+t.Name)
	}

	lines = append(lines, "  "+mutedStyle.Render(fmt.Sprintf(
		"Zone 2: %s at %s bpm  |  Resting HR %s  HRV %s  Sleep %s h",
		formatMinutes(w.Zone2TotalMinutes),
		formatFloatPtr(w.Zone2AvgHR, 0),
		formatFloatPtr(w.AvgRestingHR, 0),
		formatFloatPtr(w.AvgHRV, 0),
		formatFloatPtr(w.AvgSleepHours, 1),
	)))

	return strings.Join(lines, "\n")
}
