package screens

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/aimetrics/internal/query"
)

type Commits struct {
	src    MetricsSource
	opts   query.Options
	width  int
	height int

	commits []query.Commit
	cursor  int
	loading bool
	err     error
}

func NewCommits(src MetricsSource, opts query.Options) *Commits {
	return &Commits{src: src, opts: opts}
}

func (c *Commits) SetSize(width, height int) {
	c.width = width
	c.height = height
}

func (c *Commits) SetDeveloper(email string) {
	c.opts.Filter.Developer = email
}

func (c *Commits) Init() tea.Cmd {
	c.loading = true
	return loadMetrics(c.src, c.opts)
}

func (c *Commits) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case metricsMsg:
		c.loading = false
		c.err = msg.err
		c.commits = nil
		if msg.metrics != nil {
			c.commits = msg.metrics.RecentCommits
		}
		if c.cursor >= len(c.commits) {
			c.cursor = max(0, len(c.commits)-1)
		}
		return nil

	case RefreshMsg:
		return c.Init()

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if c.cursor > 0 {
				c.cursor--
			}
		case "down", "j":
			if c.cursor < len(c.commits)-1 {
				c.cursor++
			}
		case "q", "esc":
			return Navigate("dashboard")
		}
	}

	return nil
}

func (c *Commits) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("RECENT COMMITS"))
	b.WriteString("\n\n")

	if c.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if c.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", c.err)))
		b.WriteString("\n")
		return b.String()
	}

	if len(c.commits) == 0 {
		b.WriteString(DimStyle.Render("No commits analyzed yet."))
		b.WriteString("\n\n")
	} else {
		width := max(c.width-50, 30)
		for i, commit := range c.commits {
			cursor := "  "
			style := NormalStyle
			if i == c.cursor {
				cursor = "> "
				style = SelectedStyle
			}

			spent := "-"
			if commit.TimeSpentMinutes != nil {
				spent = fmt.Sprintf("%dmin", *commit.TimeSpentMinutes)
			}
			tool := orDash(commit.AITool)

			line := fmt.Sprintf("%s%.7s %-10s %7s  %s",
				cursor, commit.Hash, orDash(commit.JiraID), spent, truncate(commit.Message, width))
			b.WriteString(style.Render(line))
			b.WriteString(" ")
			b.WriteString(toolStyle(tool).Render(tool))
			b.WriteString("\n")
		}

		selected := c.commits[c.cursor]
		b.WriteString("\n")
		b.WriteString(BoxStyle.Render(fmt.Sprintf("%s\n%s · %s\ntype: %s",
			selected.Message, selected.AuthorEmail, selected.Timestamp, orDash(selected.CommitType))))
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render("[↑/↓] Navigate  [q] Back"))

	return b.String()
}
