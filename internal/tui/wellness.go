package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"longevity/internal/service"
	"longevity/internal/store"
)

// WellnessModel shows recent daily wellness samples in a scrollable view
type WellnessModel struct {
	queryService *service.QueryService
	daily        []store.DailyMetrics // oldest first
	viewport     viewport.Model
	loading      bool
	err          error
	ready        bool
}

// NewWellnessModel creates a new wellness model
func NewWellnessModel(qs *service.QueryService, width, height int) WellnessModel {
	m := WellnessModel{
		queryService: qs,
		loading:      true,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6)
		m.ready = true
	}

	return m
}

// Init initializes the wellness screen
func (m WellnessModel) Init() tea.Cmd {
	return m.loadDaily
}

type dailyLoadedMsg struct {
	daily []store.DailyMetrics
	err   error
}

func (m WellnessModel) loadDaily() tea.Msg {
	daily, err := m.queryService.DailyMetrics(context.Background(), service.DefaultDailyDays)
	return dailyLoadedMsg{daily: daily, err: err}
}

// Update handles messages
func (m WellnessModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dailyLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.daily = msg.daily
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		if m.daily != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		if msg.String() == "r" {
			m.loading = true
			return m, m.loadDaily
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the wellness screen
func (m WellnessModel) View() string {
	if m.loading {
		return "\n  Loading wellness data..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("  j/k or arrows: scroll  r: refresh")
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m WellnessModel) renderContent() string {
	if len(m.daily) == 0 {
		return "\n  No wellness data. Configure the wearable source and sync."
	}

	var sections []string
	sections = append(sections, cardTitleStyle.Render(fmt.Sprintf("Wellness - last %d days", service.DefaultDailyDays)))

	if series := restingHRSeries(m.daily); len(series) > 1 {
		graph := asciigraph.Plot(series,
			asciigraph.Height(6),
			asciigraph.Width(50),
			asciigraph.Precision(0),
			asciigraph.Caption("Resting HR"),
		)
		sections = append(sections, cardStyle.Render(graph))
	}

	header := tableHeaderStyle.Render(fmt.Sprintf("%-10s  %8s  %4s  %4s  %6s  %4s  %5s  %6s  %5s  %6s",
		"Date", "Steps", "RHR", "HRV", "Sleep", "Scr", "Batt", "Stress", "Gap", "Streak"))
	sections = append(sections, header)

	// Newest first
	for i := len(m.daily) - 1; i >= 0; i-- {
		d := m.daily[i]
		sections = append(sections, tableRowStyle.Render(fmt.Sprintf("%-10s  %8s  %4s  %4s  %6s  %4s  %5s  %6s  %5s  %6s",
			d.Date.Format("Mon Jan 2"),
			formatSteps(d.Steps),
			formatIntPtr(d.RestingHR),
			formatFloatPtr(d.HRV, 0),
			formatFloatPtr(d.SleepHours, 1),
			formatIntPtr(d.SleepScore),
			formatIntPtr(d.BodyBattery),
			formatIntPtr(d.Stress),
			formatDays(d.DaysSinceLastActivity),
			formatIntPtr(d.CurrentStreak),
		)))
	}

	return strings.Join(sections, "\n")
}

// restingHRSeries returns the resting HR samples in date order, skipping gaps
func restingHRSeries(daily []store.DailyMetrics) []float64 {
	var out []float64
	for _, d := range daily {
		if d.RestingHR != nil {
			out = append(out, float64(*d.RestingHR))
		}
	}
	return out
}
