package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"longevity/internal/service"
)

var phaseLabels = map[string]string{
	"wellness":          "Fetching daily wellness",
	"garmin_activities": "Fetching wearable activities",
	"strava_activities": "Fetching Strava activities",
	"recompute":         "Recomputing gaps, streaks and weekly summaries",
}

// SyncModel is the sync screen model
type SyncModel struct {
	syncService *service.SyncService
	spinner     spinner.Model
	syncing     bool
	progress    service.SyncProgress
	result      *service.SyncResult
	err         error
	done        bool
	cancel      context.CancelFunc
}

// NewSyncModel creates a new sync model
func NewSyncModel(ss *service.SyncService) SyncModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return SyncModel{
		syncService: ss,
		spinner:     sp,
	}
}

// Init initializes the sync screen
func (m SyncModel) Init() tea.Cmd {
	return nil
}

// SyncDoneMsg is sent when sync finishes
type SyncDoneMsg struct {
	Result *service.SyncResult
	Err    error
}

type syncProgressMsg struct {
	progress service.SyncProgress
	updates  <-chan service.SyncProgress
	done     <-chan SyncDoneMsg
}

// Update handles messages
func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case syncProgressMsg:
		m.progress = msg.progress
		return m, waitForSync(msg.updates, msg.done)

	case SyncDoneMsg:
		m.syncing = false
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		return m, func() tea.Msg { return SyncCompleteMsg{} }

	case spinner.TickMsg:
		if !m.syncing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.syncing {
			if msg.String() == "esc" && m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		switch msg.String() {
		case "enter", "s":
			ctx, cancel := context.WithCancel(context.Background())
			m.syncing = true
			m.done = false
			m.err = nil
			m.result = nil
			m.progress = service.SyncProgress{}
			m.cancel = cancel
			return m, tea.Batch(m.spinner.Tick, m.startSync(ctx))
		}
	}
	return m, nil
}

// startSync runs the sync in the background and streams its progress
func (m SyncModel) startSync(ctx context.Context) tea.Cmd {
	updates := make(chan service.SyncProgress, 16)
	done := make(chan SyncDoneMsg, 1)

	go func() {
		result, err := m.syncService.SyncAll(ctx, updates)
		done <- SyncDoneMsg{Result: result, Err: err}
	}()

	return waitForSync(updates, done)
}

// waitForSync delivers the next progress update, or the final result once
// the progress channel is closed
func waitForSync(updates <-chan service.SyncProgress, done <-chan SyncDoneMsg) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-updates
		if !ok {
			return <-done
		}
		return syncProgressMsg{progress: p, updates: updates, done: done}
	}
}

// View renders the sync screen
func (m SyncModel) View() string {
	var sections []string

	sections = append(sections, cardTitleStyle.Render("Sync"))

	if m.err != nil {
		msg := fmt.Sprintf("\n  Error: %v", m.err)
		if errors.Is(m.err, service.ErrSyncInProgress) {
			msg = "\n  Another sync is already running."
		}
		sections = append(sections, errorStyle.Render(msg))
		sections = append(sections, m.renderSummary())
		sections = append(sections, "\n"+statusStyle.Render("  Press 's' or Enter to retry"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	switch {
	case m.syncing:
		sections = append(sections, m.renderProgress())
	case m.done:
		sections = append(sections, successStyle.Render("\n  Sync complete!"))
		sections = append(sections, m.renderSummary())
		sections = append(sections, "\n"+statusStyle.Render("  Press '1' to go to dashboard"))
	default:
		sections = append(sections, m.renderStartPrompt())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m SyncModel) renderStartPrompt() string {
	var lines []string

	lines = append(lines, "")
	sources := m.syncService.Sources()
	if len(sources) == 0 {
		lines = append(lines, warningStyle.Render("  No providers configured. Sync will only recompute derived data."))
	} else {
		lines = append(lines, "  This will sync from: "+strings.Join(sources, ", "))
	}
	lines = append(lines, "")
	lines = append(lines, "  1. Fetch daily wellness and wearable activities")
	lines = append(lines, "  2. Fetch new Strava activities")
	lines = append(lines, "  3. Recompute zones, gaps, streaks and weekly summaries")
	lines = append(lines, "")
	lines = append(lines, statusStyle.Render("  Press 's' or Enter to start sync"))

	return strings.Join(lines, "\n")
}

func (m SyncModel) renderProgress() string {
	var lines []string

	lines = append(lines, "")

	label := phaseLabels[m.progress.Phase]
	if label == "" {
		label = "Starting"
	}
	lines = append(lines, "  "+m.spinner.View()+" "+label+"...")

	if m.progress.Total > 0 {
		pct := float64(m.progress.Completed) / float64(m.progress.Total)
		lines = append(lines, fmt.Sprintf("  %s %d/%d", RenderProgressBar(pct, 30), m.progress.Completed, m.progress.Total))
	}
	if m.progress.Current != "" {
		lines = append(lines, statusStyle.Render("  "+m.progress.Current))
	}

	lines = append(lines, "")
	lines = append(lines, statusStyle.Render("  Press esc to cancel"))

	return strings.Join(lines, "\n")
}

func (m SyncModel) renderSummary() string {
	if m.result == nil {
		return ""
	}

	r := m.result
	var lines []string
	lines = append(lines, "")

	if r.DaysSynced > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d days of wellness data synced", r.DaysSynced)))
	}
	if r.ActivitiesStored > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d new activities (%d fetched)", r.ActivitiesStored, r.ActivitiesFetched)))
	} else {
		lines = append(lines, statusStyle.Render("  No new activities"))
	}
	if r.DuplicatesSkipped > 0 {
		lines = append(lines, statusStyle.Render(fmt.Sprintf("  %d cross-provider duplicates skipped", r.DuplicatesSkipped)))
	}
	if len(r.Rejected) > 0 {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("  %d records skipped as invalid", len(r.Rejected))))
	}

	if len(r.Errors) > 0 {
		lines = append(lines, "")
		lines = append(lines, warningStyle.Render(fmt.Sprintf("  %d errors occurred:", len(r.Errors))))
		for i, err := range r.Errors {
			if i >= 5 {
				lines = append(lines, statusStyle.Render(fmt.Sprintf("    ... and %d more", len(r.Errors)-5)))
				break
			}
			lines = append(lines, statusStyle.Render("    "+truncateName(err.Error(), 70)))
		}
	}

	return strings.Join(lines, "\n")
}
