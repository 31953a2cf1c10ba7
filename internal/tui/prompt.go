package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/aimetrics/internal/resolver"
	"github.com/emilianohg/aimetrics/internal/tui/screens"
)

var ErrAborted = errors.New("aborted by user")

type gapStep int

const (
	gapStepConfirm gapStep = iota
	gapStepDescription
	gapStepLinks
)

// GapModel asks whether an ambiguous gap should be recorded as research.
type GapModel struct {
	gap         resolver.Gap
	step        gapStep
	description textinput.Model
	links       textinput.Model
	decision    resolver.Decision
	done        bool
	aborted     bool
	err         string
}

func NewGapModel(gap resolver.Gap) *GapModel {
	desc := textinput.New()
	desc.Placeholder = "What were you doing during this period?"
	desc.CharLimit = 500
	desc.Width = 60

	links := textinput.New()
	links.Placeholder = "https://..., https://..."
	links.Width = 60

	return &GapModel{gap: gap, description: desc, links: links}
}

// Decision returns the answer once the prompt has finished.
func (m *GapModel) Decision() (resolver.Decision, bool) {
	return m.decision, m.done
}

func (m *GapModel) Aborted() bool {
	return m.aborted
}

func (m *GapModel) Init() tea.Cmd {
	return nil
}

func (m *GapModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, isKey := msg.(tea.KeyMsg)
	if isKey && key.Type == tea.KeyCtrlC {
		m.aborted = true
		return m, tea.Quit
	}

	switch m.step {
	case gapStepConfirm:
		if !isKey {
			return m, nil
		}
		switch strings.ToLower(key.String()) {
		case "y":
			m.step = gapStepDescription
			return m, m.description.Focus()
		case "n", "enter", "esc":
			m.done = true
			return m, tea.Quit
		}
		return m, nil

	case gapStepDescription:
		if isKey && key.Type == tea.KeyEnter {
			if strings.TrimSpace(m.description.Value()) == "" {
				m.err = "A description is required"
				return m, nil
			}
			m.description.Blur()
			m.step = gapStepLinks
			return m, m.links.Focus()
		}
		m.err = ""
		var cmd tea.Cmd
		m.description, cmd = m.description.Update(msg)
		return m, cmd

	case gapStepLinks:
		if isKey && key.Type == tea.KeyEnter {
			m.decision = resolver.Decision{
				Record:      true,
				Description: strings.TrimSpace(m.description.Value()),
				Links:       resolver.NormalizeLinks(m.links.Value()),
			}
			m.done = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.links, cmd = m.links.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *GapModel) View() string {
	if m.done || m.aborted {
		return ""
	}

	var b strings.Builder

	question := fmt.Sprintf("%dh gap detected between commits of %s. Record a manual activity?",
		m.gap.Hours(), m.gap.AuthorName)
	b.WriteString(screens.WarningStyle.Render(question))
	b.WriteString("\n")
	b.WriteString(screens.DimStyle.Render(fmt.Sprintf("%s → %s (%d min)",
		m.gap.Start.Local().Format("Jan 02 15:04"), m.gap.End.Local().Format("Jan 02 15:04"), m.gap.Minutes)))
	b.WriteString("\n\n")

	switch m.step {
	case gapStepConfirm:
		b.WriteString(screens.HelpStyle.Render("[y] Yes  [N] No"))
	case gapStepDescription:
		b.WriteString("What were you doing during this period?\n")
		b.WriteString(m.description.View())
		if m.err != "" {
			b.WriteString("\n")
			b.WriteString(screens.ErrorStyle.Render(m.err))
		}
		b.WriteString("\n")
		b.WriteString(screens.HelpStyle.Render("[enter] Next  [ctrl+c] Abort"))
	case gapStepLinks:
		b.WriteString("Research links (comma separated, optional):\n")
		b.WriteString(m.links.View())
		b.WriteString("\n")
		b.WriteString(screens.HelpStyle.Render("[enter] Save  [ctrl+c] Abort"))
	}
	b.WriteString("\n")

	return b.String()
}

// Prompt resolves gaps by asking on the terminal, one small program per gap.
type Prompt struct {
	Input  io.Reader
	Output io.Writer
}

func (p Prompt) Resolve(ctx context.Context, gap resolver.Gap) (resolver.Decision, error) {
	final, err := runProgram(ctx, NewGapModel(gap), p.Input, p.Output)
	if err != nil {
		return resolver.Decision{}, err
	}

	m := final.(*GapModel)
	if m.Aborted() {
		return resolver.Decision{}, ErrAborted
	}
	d, _ := m.Decision()
	return d, nil
}

func runProgram(ctx context.Context, model tea.Model, in io.Reader, out io.Writer) (tea.Model, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	return tea.NewProgram(model, opts...).Run()
}
