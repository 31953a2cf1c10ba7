package screens

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/aimetrics/internal/query"
)

type Jira struct {
	src    MetricsSource
	opts   query.Options
	width  int
	height int

	tasks      []query.JiraTask
	comparison []query.JiraComparison
	showVar    bool
	loading    bool
	err        error
}

func NewJira(src MetricsSource, opts query.Options) *Jira {
	return &Jira{src: src, opts: opts}
}

func (j *Jira) SetSize(width, height int) {
	j.width = width
	j.height = height
}

func (j *Jira) SetDeveloper(email string) {
	j.opts.Filter.Developer = email
}

func (j *Jira) Init() tea.Cmd {
	j.loading = true
	return loadMetrics(j.src, j.opts)
}

func (j *Jira) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case metricsMsg:
		j.loading = false
		j.err = msg.err
		j.tasks, j.comparison = nil, nil
		if msg.metrics != nil {
			j.tasks = msg.metrics.JiraTasks
			j.comparison = msg.metrics.JiraComparison
		}
		return nil

	case RefreshMsg:
		return j.Init()

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "v":
			j.showVar = !j.showVar
		case "q", "esc":
			return Navigate("dashboard")
		}
	}

	return nil
}

func (j *Jira) View() string {
	var b strings.Builder

	title := "JIRA TASKS"
	if j.showVar {
		title = "ESTIMATE VS LOGGED"
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n\n")

	if j.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if j.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", j.err)))
		b.WriteString("\n")
		return b.String()
	}

	if j.showVar {
		j.viewComparison(&b)
	} else {
		j.viewTasks(&b)
	}

	b.WriteString(HelpStyle.Render("[tab] Switch view  [q] Back"))

	return b.String()
}

func (j *Jira) viewTasks(b *strings.Builder) {
	if len(j.tasks) == 0 {
		b.WriteString(DimStyle.Render("No tasks synced. Run `aimetrics sync-jira`."))
		b.WriteString("\n\n")
		return
	}

	for _, t := range j.tasks {
		b.WriteString(fmt.Sprintf("  %-12s %-14s %6s / %-6s %s\n",
			t.Key, truncate(t.Status, 14), hours(t.EstimateHours), hours(t.TimeLoggedHours), truncate(t.Title, 50)))
	}
	b.WriteString("\n")
}

func (j *Jira) viewComparison(b *strings.Builder) {
	if len(j.comparison) == 0 {
		b.WriteString(DimStyle.Render("No tasks with both an estimate and logged time."))
		b.WriteString("\n\n")
		return
	}

	for _, c := range j.comparison {
		style := SuccessStyle
		if c.VarianceHours > 0 {
			style = WarningStyle
		}
		tool := orDash(c.AITool)
		b.WriteString(fmt.Sprintf("  %-12s %-8s est %5.1fh  logged %5.1fh  ",
			c.Key, tool, c.EstimateHours, c.TimeLoggedHours))
		b.WriteString(style.Render(fmt.Sprintf("%+.1fh", c.VarianceHours)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func hours(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1fh", *v)
}
