package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"longevity/internal/config"
	"longevity/internal/service"
)

// Screen identifiers
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenActivities
	ScreenWeekly
	ScreenWellness
	ScreenSync
	ScreenHelp
)

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	dashboard  DashboardModel
	activities ActivitiesModel
	weekly     WeeklyModel
	wellness   WellnessModel
	syncScreen SyncModel
	help       HelpModel

	// Services
	queryService *service.QueryService
	syncService  *service.SyncService
	units        Units

	// Window dimensions
	width  int
	height int
}

// NewApp creates a new App with all dependencies
func NewApp(syncService *service.SyncService, queryService *service.QueryService, display config.DisplayConfig) *App {
	units := NewUnits(display)
	return &App{
		screen:       ScreenDashboard,
		queryService: queryService,
		syncService:  syncService,
		units:        units,
		dashboard:    NewDashboardModel(queryService, units),
		activities:   NewActivitiesModel(queryService, syncService, units),
		weekly:       NewWeeklyModel(queryService),
		wellness:     NewWellnessModel(queryService, 0, 0),
		syncScreen:   NewSyncModel(syncService),
		help:         NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.dashboard.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keybindings, except while a sync runs or a delete awaits confirmation
		if !a.syncScreen.syncing && !a.activities.confirming {
			switch msg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			case "1":
				a.screen = ScreenDashboard
				a.dashboard = NewDashboardModel(a.queryService, a.units)
				return a, a.dashboard.Init()
			case "2":
				a.screen = ScreenActivities
				return a, a.activities.Init()
			case "3":
				a.screen = ScreenWeekly
				return a, a.weekly.Init()
			case "4":
				a.screen = ScreenWellness
				a.wellness = NewWellnessModel(a.queryService, a.width, a.height)
				return a, a.wellness.Init()
			case "5", "s":
				if a.screen != ScreenSync {
					a.screen = ScreenSync
					return a, a.syncScreen.Init()
				}
				// Let 's' fall through to sync screen when already there
			case "?":
				a.prevScreen = a.screen
				a.screen = ScreenHelp
				return a, nil
			case "esc":
				if a.screen == ScreenHelp {
					a.screen = a.prevScreen
					return a, nil
				}
			}
		} else if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// The wellness viewport sizes itself even when not visible
		var cmd tea.Cmd
		var m tea.Model
		m, cmd = a.wellness.Update(msg)
		a.wellness = m.(WellnessModel)
		return a, cmd

	case SyncCompleteMsg:
		// Refresh cached screens after sync
		return a, tea.Batch(a.dashboard.loadData, a.activities.loadPage, a.weekly.loadWeeks)

	case dashboardDataMsg:
		return a.updateScreen(ScreenDashboard, msg)
	case activitiesLoadedMsg, activityDeletedMsg:
		return a.updateScreen(ScreenActivities, msg)
	case weeksLoadedMsg:
		return a.updateScreen(ScreenWeekly, msg)
	case dailyLoadedMsg:
		return a.updateScreen(ScreenWellness, msg)
	case syncProgressMsg, SyncDoneMsg:
		return a.updateScreen(ScreenSync, msg)
	}

	return a.updateScreen(a.screen, msg)
}

// updateScreen delegates msg to one screen model. Load results are routed to
// their own screen so that switching screens mid-load does not drop them.
func (a *App) updateScreen(screen Screen, msg tea.Msg) (tea.Model, tea.Cmd) {
	var m tea.Model
	var cmd tea.Cmd

	switch screen {
	case ScreenDashboard:
		m, cmd = a.dashboard.Update(msg)
		a.dashboard = m.(DashboardModel)
	case ScreenActivities:
		m, cmd = a.activities.Update(msg)
		a.activities = m.(ActivitiesModel)
	case ScreenWeekly:
		m, cmd = a.weekly.Update(msg)
		a.weekly = m.(WeeklyModel)
	case ScreenWellness:
		m, cmd = a.wellness.Update(msg)
		a.wellness = m.(WellnessModel)
	case ScreenSync:
		m, cmd = a.syncScreen.Update(msg)
		a.syncScreen = m.(SyncModel)
	case ScreenHelp:
		m, cmd = a.help.Update(msg)
		a.help = m.(HelpModel)
	}

	return a, cmd
}

// View renders the app
func (a *App) View() string {
	header := a.renderHeader()
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenActivities:
		content = a.activities.View()
	case ScreenWeekly:
		content = a.weekly.View()
	case ScreenWellness:
		content = a.wellness.View()
	case ScreenSync:
		content = a.syncScreen.View()
	case ScreenHelp:
		content = a.help.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content)
}

func (a *App) renderHeader() string {
	return headerStyle.Render("Longevity Tracker")
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Dashboard", ScreenDashboard},
		{"2", "Activities", ScreenActivities},
		{"3", "Weekly", ScreenWeekly},
		{"4", "Wellness", ScreenWellness},
		{"5", "Sync", ScreenSync},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		if a.screen == item.screen {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}

// SyncCompleteMsg is sent when sync finishes
type SyncCompleteMsg struct{}
