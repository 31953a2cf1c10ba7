package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/emilianohg/aimetrics/internal/query"
	"github.com/emilianohg/aimetrics/internal/tui/screens"
)

type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenCommits
	ScreenActivities
	ScreenJira
	ScreenDevelopers
)

type App struct {
	currentScreen Screen
	width         int
	height        int

	// Screen models
	dashboard  *screens.Dashboard
	commits    *screens.Commits
	activities *screens.Activities
	jira       *screens.Jira
	developers *screens.Developers

	// Navigation context
	developer string
}

func NewApp(src screens.MetricsSource, devs screens.DeveloperStore, opts query.Options) *App {
	return &App{
		currentScreen: ScreenDashboard,
		dashboard:     screens.NewDashboard(src, opts),
		commits:       screens.NewCommits(src, opts),
		activities:    screens.NewActivities(src, opts),
		jira:          screens.NewJira(src, opts),
		developers:    screens.NewDevelopers(devs),
		developer:     opts.Filter.Developer,
	}
}

func (a *App) Init() tea.Cmd {
	return a.dashboard.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.currentScreen == ScreenDashboard {
				return a, tea.Quit
			}
			// Let individual screens handle 'q' for going back
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.dashboard.SetSize(msg.Width, msg.Height)
		a.commits.SetSize(msg.Width, msg.Height)
		a.activities.SetSize(msg.Width, msg.Height)
		a.jira.SetSize(msg.Width, msg.Height)
		a.developers.SetSize(msg.Width, msg.Height)

	case screens.NavigateMsg:
		return a.handleNavigation(msg)
	}

	// Update current screen
	var cmd tea.Cmd
	switch a.currentScreen {
	case ScreenDashboard:
		cmd = a.dashboard.Update(msg)
	case ScreenCommits:
		cmd = a.commits.Update(msg)
	case ScreenActivities:
		cmd = a.activities.Update(msg)
	case ScreenJira:
		cmd = a.jira.Update(msg)
	case ScreenDevelopers:
		cmd = a.developers.Update(msg)
	}

	return a, cmd
}

func (a *App) handleNavigation(msg screens.NavigateMsg) (tea.Model, tea.Cmd) {
	if msg.Developer != nil {
		a.setDeveloper(*msg.Developer)
	}

	switch msg.Screen {
	case "dashboard":
		a.currentScreen = ScreenDashboard
		return a, a.dashboard.Init()
	case "commits":
		a.currentScreen = ScreenCommits
		return a, a.commits.Init()
	case "activities":
		a.currentScreen = ScreenActivities
		return a, a.activities.Init()
	case "jira":
		a.currentScreen = ScreenJira
		return a, a.jira.Init()
	case "developers":
		a.currentScreen = ScreenDevelopers
		return a, a.developers.Init()
	}
	return a, nil
}

func (a *App) setDeveloper(email string) {
	a.developer = email
	a.dashboard.SetDeveloper(email)
	a.commits.SetDeveloper(email)
	a.activities.SetDeveloper(email)
	a.jira.SetDeveloper(email)
}

func (a *App) View() string {
	var content string

	switch a.currentScreen {
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenCommits:
		content = a.commits.View()
	case ScreenActivities:
		content = a.activities.View()
	case ScreenJira:
		content = a.jira.View()
	case ScreenDevelopers:
		content = a.developers.View()
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Height(a.height).
		Render(content)
}

func Run(src screens.MetricsSource, devs screens.DeveloperStore, opts query.Options) error {
	app := NewApp(src, devs, opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
