package tui

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/aimetrics/internal/models"
	"github.com/emilianohg/aimetrics/internal/track"
	"github.com/emilianohg/aimetrics/internal/tui/screens"
)

type trackStep int

const (
	trackStepEmail trackStep = iota
	trackStepTool
	trackStepType
	trackStepDescription
	trackStepDuration
	trackStepLinks
	trackStepDone
)

var trackQuestions = []string{
	"Your email:",
	"Which AI tool did you use?",
	"Activity type:",
	"Describe what you did:",
	"Duration in minutes:",
	"Relevant links (comma separated, optional):",
}

// TrackForm collects the answers for a manual activity.
type TrackForm struct {
	step    trackStep
	inputs  map[trackStep]*textinput.Model
	cursor  int
	answers track.Answers
	aborted bool
	err     string
}

func NewTrackForm(email string) *TrackForm {
	newInput := func(placeholder string, limit int) *textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = limit
		ti.Width = 50
		return &ti
	}

	f := &TrackForm{
		inputs: map[trackStep]*textinput.Model{
			trackStepEmail:       newInput("you@company.com", 200),
			trackStepDescription: newInput("Read the Kafka consumer docs", 500),
			trackStepDuration:    newInput("30", 5),
			trackStepLinks:       newInput("https://..., https://...", 1000),
		},
	}
	f.inputs[trackStepEmail].SetValue(email)
	f.inputs[trackStepEmail].Focus()
	return f
}

// Answers returns the collected answers and whether the form was completed.
func (f *TrackForm) Answers() (track.Answers, bool) {
	return f.answers, f.step == trackStepDone
}

func (f *TrackForm) Aborted() bool {
	return f.aborted
}

func (f *TrackForm) Init() tea.Cmd {
	return textinput.Blink
}

func (f *TrackForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, isKey := msg.(tea.KeyMsg)
	if isKey {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			f.aborted = true
			return f, tea.Quit
		case tea.KeyEnter:
			return f.submit()
		}
	}

	switch f.step {
	case trackStepTool, trackStepType:
		if isKey {
			f.moveCursor(key.String())
		}
		return f, nil
	}

	input, ok := f.inputs[f.step]
	if !ok {
		return f, nil
	}
	f.err = ""
	var cmd tea.Cmd
	*input, cmd = input.Update(msg)
	return f, cmd
}

func (f *TrackForm) moveCursor(key string) {
	n := len(models.AITools)
	if f.step == trackStepType {
		n = len(models.ActivityTypes)
	}
	switch key {
	case "up", "k":
		if f.cursor > 0 {
			f.cursor--
		}
	case "down", "j":
		if f.cursor < n-1 {
			f.cursor++
		}
	}
}

func (f *TrackForm) submit() (tea.Model, tea.Cmd) {
	var err error

	switch f.step {
	case trackStepEmail:
		f.answers.Email = strings.TrimSpace(f.inputs[trackStepEmail].Value())
		err = track.ValidateEmail(f.answers.Email)
	case trackStepTool:
		f.answers.AITool = string(models.AITools[f.cursor])
	case trackStepType:
		f.answers.ActivityType = string(models.ActivityTypes[f.cursor])
	case trackStepDescription:
		f.answers.Description = f.inputs[trackStepDescription].Value()
		err = track.ValidateDescription(f.answers.Description)
	case trackStepDuration:
		f.answers.Duration = strings.TrimSpace(f.inputs[trackStepDuration].Value())
		_, err = track.ParseDuration(f.answers.Duration)
	case trackStepLinks:
		f.answers.Links = f.inputs[trackStepLinks].Value()
	}
	if err != nil {
		f.err = err.Error()
		return f, nil
	}

	if input, ok := f.inputs[f.step]; ok {
		input.Blur()
	}
	f.err = ""
	f.cursor = 0
	f.step++

	if f.step == trackStepDone {
		return f, tea.Quit
	}
	if input, ok := f.inputs[f.step]; ok {
		return f, input.Focus()
	}
	return f, nil
}

func (f *TrackForm) View() string {
	if f.step == trackStepDone || f.aborted {
		return ""
	}

	var b strings.Builder

	b.WriteString(screens.TitleStyle.Render("TRACK ACTIVITY"))
	b.WriteString("\n")
	b.WriteString(trackQuestions[f.step])
	b.WriteString("\n")

	switch f.step {
	case trackStepTool:
		for i, tool := range models.AITools {
			b.WriteString(f.option(i, string(tool)))
		}
	case trackStepType:
		for i, t := range models.ActivityTypes {
			b.WriteString(f.option(i, string(t)))
		}
	default:
		b.WriteString(f.inputs[f.step].View())
		b.WriteString("\n")
	}

	if f.err != "" {
		b.WriteString(screens.ErrorStyle.Render(f.err))
		b.WriteString("\n")
	}

	b.WriteString(screens.HelpStyle.Render("[enter] Next  [esc] Cancel"))
	b.WriteString("\n")

	return b.String()
}

func (f *TrackForm) option(i int, label string) string {
	if i == f.cursor {
		return screens.SelectedStyle.Render("> "+label) + "\n"
	}
	return screens.NormalStyle.Render("  "+label) + "\n"
}

// RunTrackForm runs the form on the terminal and returns the answers.
func RunTrackForm(ctx context.Context, email string, in io.Reader, out io.Writer) (track.Answers, error) {
	final, err := runProgram(ctx, NewTrackForm(email), in, out)
	if err != nil {
		return track.Answers{}, err
	}

	f := final.(*TrackForm)
	answers, ok := f.Answers()
	if f.Aborted() || !ok {
		return track.Answers{}, ErrAborted
	}
	return answers, nil
}
