package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"longevity/internal/service"
	"longevity/internal/store"
)

// ActivitiesModel is the activities list screen model
type ActivitiesModel struct {
	queryService *service.QueryService
	syncService  *service.SyncService
	units        Units
	activities   []store.Activity
	cursor       int
	offset       int
	total        int
	pageSize     int
	loading      bool
	confirming   bool
	err          error
}

// NewActivitiesModel creates a new activities model
func NewActivitiesModel(qs *service.QueryService, ss *service.SyncService, units Units) ActivitiesModel {
	return ActivitiesModel{
		queryService: qs,
		syncService:  ss,
		units:        units,
		pageSize:     15,
		loading:      true,
	}
}

// Init initializes the activities screen
func (m ActivitiesModel) Init() tea.Cmd {
	return m.loadPage
}

type activitiesLoadedMsg struct {
	activities []store.Activity
	total      int
	err        error
}

type activityDeletedMsg struct {
	err error
}

func (m ActivitiesModel) loadPage() tea.Msg {
	ctx := context.Background()

	activities, err := m.queryService.Activities(ctx, m.pageSize, m.offset)
	if err != nil {
		return activitiesLoadedMsg{err: err}
	}

	total, err := m.queryService.ActivityCount(ctx)
	if err != nil {
		return activitiesLoadedMsg{err: err}
	}

	return activitiesLoadedMsg{activities: activities, total: total}
}

func (m ActivitiesModel) deleteSelected() tea.Cmd {
	id := m.activities[m.cursor].ID
	return func() tea.Msg {
		return activityDeletedMsg{err: m.syncService.DeleteActivity(context.Background(), id)}
	}
}

// Update handles messages
func (m ActivitiesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case activitiesLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.activities = msg.activities
		m.total = msg.total
		if m.cursor >= len(m.activities) {
			m.cursor = max(len(m.activities)-1, 0)
		}

	case activityDeletedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.loading = true
		return m, m.loadPage

	case tea.KeyMsg:
		if m.confirming {
			m.confirming = false
			if msg.String() == "y" && m.cursor < len(m.activities) {
				return m, m.deleteSelected()
			}
			return m, nil
		}

		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			} else if m.offset > 0 {
				m.offset -= m.pageSize
				m.cursor = m.pageSize - 1
				m.loading = true
				return m, m.loadPage
			}
		case "down", "j":
			if m.cursor < len(m.activities)-1 {
				m.cursor++
			} else if m.offset+len(m.activities) < m.total {
				m.offset += m.pageSize
				m.cursor = 0
				m.loading = true
				return m, m.loadPage
			}
		case "pgup":
			if m.offset > 0 {
				m.offset = max(m.offset-m.pageSize, 0)
				m.cursor = 0
				m.loading = true
				return m, m.loadPage
			}
		case "pgdown":
			if m.offset+m.pageSize < m.total {
				m.offset += m.pageSize
				m.cursor = 0
				m.loading = true
				return m, m.loadPage
			}
		case "r":
			m.loading = true
			return m, m.loadPage
		case "d":
			if len(m.activities) > 0 {
				m.confirming = true
			}
		}
	}
	return m, nil
}

// View renders the activities list
func (m ActivitiesModel) View() string {
	if m.loading {
		return "\n  Loading activities..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if len(m.activities) == 0 {
		return "\n  No activities found. Press 's' to sync."
	}

	var sections []string

	startNum := m.offset + 1
	endNum := m.offset + len(m.activities)
	title := cardTitleStyle.Render(fmt.Sprintf("Activities (%d-%d of %d)", startNum, endNum, m.total))
	sections = append(sections, title)
	sections = append(sections, "  "+activityHeader(m.units))

	for i, a := range m.activities {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		row := cursor + activityRow(a, m.units)
		if i == m.cursor {
			sections = append(sections, tableSelectedStyle.Render(row))
		} else {
			sections = append(sections, tableRowStyle.Render(row))
		}
	}

	if m.confirming {
		a := m.activities[m.cursor]
		sections = append(sections, warningStyle.Render(fmt.Sprintf("\n  Delete %s on %s? (y/n)",
			a.ActivityType, a.Date.Format("2006-01-02"))))
	} else {
		sections = append(sections, statusStyle.Render("\n  j/k: navigate  pgup/pgdn: page  d: delete  r: refresh"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
