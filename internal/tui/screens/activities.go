package screens

import (
	"encoding/json"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/aimetrics/internal/query"
)

type Activities struct {
	src    MetricsSource
	opts   query.Options
	width  int
	height int

	activities []query.Activity
	cursor     int
	loading    bool
	err        error
}

func NewActivities(src MetricsSource, opts query.Options) *Activities {
	return &Activities{src: src, opts: opts}
}

func (a *Activities) SetSize(width, height int) {
	a.width = width
	a.height = height
}

func (a *Activities) SetDeveloper(email string) {
	a.opts.Filter.Developer = email
}

func (a *Activities) Init() tea.Cmd {
	a.loading = true
	return loadMetrics(a.src, a.opts)
}

func (a *Activities) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case metricsMsg:
		a.loading = false
		a.err = msg.err
		a.activities = nil
		if msg.metrics != nil {
			a.activities = msg.metrics.RecentActivities
		}
		if a.cursor >= len(a.activities) {
			a.cursor = max(0, len(a.activities)-1)
		}
		return nil

	case RefreshMsg:
		return a.Init()

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if a.cursor > 0 {
				a.cursor--
			}
		case "down", "j":
			if a.cursor < len(a.activities)-1 {
				a.cursor++
			}
		case "q", "esc":
			return Navigate("dashboard")
		}
	}

	return nil
}

func (a *Activities) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("MANUAL ACTIVITIES"))
	b.WriteString("\n\n")

	if a.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if a.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", a.err)))
		b.WriteString("\n")
		return b.String()
	}

	if len(a.activities) == 0 {
		b.WriteString(DimStyle.Render("No activities yet. Use `aimetrics track` to record one."))
		b.WriteString("\n\n")
	} else {
		width := max(a.width-45, 30)
		for i, act := range a.activities {
			cursor := "  "
			style := NormalStyle
			if i == a.cursor {
				cursor = "> "
				style = SelectedStyle
			}

			line := fmt.Sprintf("%s%-16.16s %-14s %4dmin  %s",
				cursor, act.Timestamp, act.ActivityType, act.DurationMinutes, truncate(act.Description, width))
			b.WriteString(style.Render(line))
			b.WriteString(" ")
			b.WriteString(toolStyle(act.AITool).Render(act.AITool))
			b.WriteString("\n")
		}

		selected := a.activities[a.cursor]
		details := fmt.Sprintf("%s\n%s", selected.Description, selected.AuthorEmail)
		for _, link := range activityLinks(selected) {
			details += "\n" + link
		}
		b.WriteString("\n")
		b.WriteString(BoxStyle.Render(details))
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render("[↑/↓] Navigate  [q] Back"))

	return b.String()
}

func activityLinks(a query.Activity) []string {
	if a.ResearchLinks == nil {
		return nil
	}
	var links []string
	if err := json.Unmarshal([]byte(*a.ResearchLinks), &links); err != nil {
		return []string{*a.ResearchLinks}
	}
	return links
}
