package screens

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/emilianohg/aimetrics/internal/models"
	"github.com/emilianohg/aimetrics/internal/query"
)

// NavigateMsg is sent when navigation to another screen is requested.
// Developer carries the email filter; empty means everyone.
type NavigateMsg struct {
	Screen    string
	Developer *string
}

func Navigate(screen string) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{Screen: screen}
	}
}

func NavigateWithDeveloper(screen string, email string) tea.Cmd {
	return func() tea.Msg {
		return NavigateMsg{Screen: screen, Developer: &email}
	}
}

// RefreshMsg is sent when data should be refreshed
type RefreshMsg struct{}

func Refresh() tea.Cmd {
	return func() tea.Msg {
		return RefreshMsg{}
	}
}

// MetricsSource is the read side every screen renders from.
type MetricsSource interface {
	Metrics(ctx context.Context, opts query.Options) (*query.Metrics, error)
}

type DeveloperStore interface {
	Upsert(d models.Developer) error
	GetAll() ([]models.Developer, error)
	Delete(email string) error
}

type metricsMsg struct {
	metrics *query.Metrics
	err     error
}

func loadMetrics(src MetricsSource, opts query.Options) tea.Cmd {
	return func() tea.Msg {
		m, err := src.Metrics(context.Background(), opts)
		return metricsMsg{metrics: m, err: err}
	}
}

func toolStyle(tool string) lipgloss.Style {
	switch models.AITool(tool) {
	case models.AIToolCopilot:
		return SuccessStyle
	case models.AIToolDevin:
		return WarningStyle
	}
	return DimStyle
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginBottom(1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	NormalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)
)
