package screens

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/aimetrics/internal/query"
)

type Dashboard struct {
	src    MetricsSource
	opts   query.Options
	width  int
	height int

	metrics *query.Metrics
	loading bool
	err     error
}

func NewDashboard(src MetricsSource, opts query.Options) *Dashboard {
	return &Dashboard{
		src:     src,
		opts:    opts,
		loading: true,
	}
}

func (d *Dashboard) SetSize(width, height int) {
	d.width = width
	d.height = height
}

func (d *Dashboard) SetDeveloper(email string) {
	d.opts.Filter.Developer = email
}

func (d *Dashboard) Init() tea.Cmd {
	d.loading = true
	return loadMetrics(d.src, d.opts)
}

func (d *Dashboard) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case metricsMsg:
		d.loading = false
		d.err = msg.err
		d.metrics = msg.metrics
		return nil

	case RefreshMsg:
		return d.Init()

	case tea.KeyMsg:
		switch msg.String() {
		case "c":
			return Navigate("commits")
		case "a":
			return Navigate("activities")
		case "j":
			return Navigate("jira")
		case "d":
			return Navigate("developers")
		case "r":
			return Refresh()
		case "x":
			if d.opts.Filter.Developer != "" {
				return NavigateWithDeveloper("dashboard", "")
			}
		}
	}

	return nil
}

func (d *Dashboard) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("AI METRICS"))
	b.WriteString("\n")
	subtitle := "All developers"
	if d.opts.Filter.Developer != "" {
		subtitle = "Developer: " + d.opts.Filter.Developer
	}
	b.WriteString(SubtitleStyle.Render(subtitle))
	b.WriteString("\n\n")

	if d.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if d.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", d.err)))
		b.WriteString("\n")
		return b.String()
	}

	o := d.metrics.Overview
	avg := "N/A"
	if o.AvgCommitTime != nil {
		avg = fmt.Sprintf("%.0f min", *o.AvgCommitTime)
	}
	statsContent := fmt.Sprintf(
		"Commits: %d\nActivities: %d\nDevelopers: %d\nJira tasks: %d\nAvg time per commit: %s",
		o.TotalCommits, o.TotalActivities, o.TotalDevelopers, o.TotalJiraTasks, avg,
	)
	b.WriteString(BoxStyle.Render(statsContent))
	b.WriteString("\n\n")

	b.WriteString(SubtitleStyle.Render("By AI tool"))
	b.WriteString("\n")
	if len(d.metrics.Summary) == 0 {
		b.WriteString(DimStyle.Render("  No data yet. Run `aimetrics analyze` in a repository."))
		b.WriteString("\n")
	}
	for _, s := range d.metrics.Summary {
		b.WriteString(fmt.Sprintf("  %s %d commits, %.0f min avg, %d activities (%d min)\n",
			toolStyle(s.AITool).Render(fmt.Sprintf("%-8s", s.AITool)),
			s.TotalCommits,
			s.AvgTimeMinutes,
			s.TotalActivities,
			s.TotalTimeMinutes,
		))
	}

	if days := timelineByDay(d.metrics.Timeline); len(days) > 0 {
		b.WriteString("\n")
		b.WriteString(SubtitleStyle.Render(fmt.Sprintf("Last %d days", d.opts.TimelineDays)))
		b.WriteString("\n")
		for _, day := range days {
			b.WriteString(fmt.Sprintf("  %s %s %d\n", day.date, strings.Repeat("█", min(day.commits, 40)), day.commits))
		}
	}

	b.WriteString("\n")

	help := "[c] Commits  [a] Activities  [j] Jira  [d] Developers  [r] Refresh  [q] Quit"
	if d.opts.Filter.Developer != "" {
		help = "[x] Clear filter  " + help
	}
	b.WriteString(HelpStyle.Render(help))

	return b.String()
}

type dayTotal struct {
	date    string
	commits int
}

// timelineByDay folds the per-tool points into one total per day, keeping
// the query's date order.
func timelineByDay(points []query.TimelinePoint) []dayTotal {
	var days []dayTotal
	for _, p := range points {
		if n := len(days); n > 0 && days[n-1].date == p.Date {
			days[n-1].commits += p.CommitsCount
			continue
		}
		days = append(days, dayTotal{date: p.Date, commits: p.CommitsCount})
	}
	return days
}
