package screens

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/aimetrics/internal/models"
	"github.com/emilianohg/aimetrics/internal/track"
)

type developersMode int

const (
	developersModeList developersMode = iota
	developersModeEmail
	developersModeName
	developersModeGroup
	developersModeDelete
)

type Developers struct {
	store  DeveloperStore
	width  int
	height int

	developers  []models.Developer
	cursor      int
	groupCursor int
	mode        developersMode
	input       textinput.Model
	draft       models.Developer
	loading     bool
	err         error
	message     string
}

func NewDevelopers(store DeveloperStore) *Developers {
	ti := textinput.New()
	ti.CharLimit = 200
	ti.Width = 40

	return &Developers{
		store: store,
		input: ti,
	}
}

func (d *Developers) SetSize(width, height int) {
	d.width = width
	d.height = height
}

type developersDataMsg struct {
	developers []models.Developer
	err        error
}

func (d *Developers) Init() tea.Cmd {
	d.loading = true
	d.mode = developersModeList
	d.message = ""
	return d.loadData
}

func (d *Developers) loadData() tea.Msg {
	developers, err := d.store.GetAll()
	return developersDataMsg{developers: developers, err: err}
}

func (d *Developers) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case developersDataMsg:
		d.loading = false
		d.err = msg.err
		d.developers = msg.developers
		if d.cursor >= len(d.developers) {
			d.cursor = max(0, len(d.developers)-1)
		}
		return nil

	case RefreshMsg:
		return d.Init()

	case tea.KeyMsg:
		return d.handleKey(msg)
	}

	if d.mode == developersModeEmail || d.mode == developersModeName {
		var cmd tea.Cmd
		d.input, cmd = d.input.Update(msg)
		return cmd
	}

	return nil
}

func (d *Developers) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch d.mode {
	case developersModeList:
		return d.handleListKey(msg)
	case developersModeEmail, developersModeName:
		return d.handleInputKey(msg)
	case developersModeGroup:
		return d.handleGroupKey(msg)
	case developersModeDelete:
		return d.handleDeleteKey(msg)
	}
	return nil
}

func (d *Developers) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if d.cursor > 0 {
			d.cursor--
		}
	case "down", "j":
		if d.cursor < len(d.developers)-1 {
			d.cursor++
		}
	case "a":
		d.mode = developersModeEmail
		d.draft = models.Developer{}
		d.input.Placeholder = "dev@company.com"
		d.input.SetValue("")
		return d.input.Focus()
	case "d":
		if len(d.developers) > 0 {
			d.mode = developersModeDelete
		}
	case "enter":
		if len(d.developers) > 0 {
			return NavigateWithDeveloper("dashboard", d.developers[d.cursor].Email)
		}
	case "q", "esc":
		return Navigate("dashboard")
	}
	return nil
}

func (d *Developers) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		value := strings.TrimSpace(d.input.Value())
		if d.mode == developersModeEmail {
			if err := track.ValidateEmail(value); err != nil {
				d.err = err
				return nil
			}
			d.draft.Email = strings.ToLower(value)
			d.mode = developersModeName
			d.input.Placeholder = "Full name"
			d.input.SetValue("")
			return nil
		}
		if value == "" {
			return nil
		}
		d.draft.Name = value
		d.mode = developersModeGroup
		d.groupCursor = 0
		d.input.Blur()
		return nil

	case "esc":
		d.mode = developersModeList
		d.input.Blur()
		return nil
	}

	var cmd tea.Cmd
	d.input, cmd = d.input.Update(msg)
	return cmd
}

func (d *Developers) handleGroupKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if d.groupCursor > 0 {
			d.groupCursor--
		}
	case "down", "j":
		if d.groupCursor < len(models.AITools)-1 {
			d.groupCursor++
		}
	case "enter":
		d.draft.GroupType = models.AITools[d.groupCursor]
		if err := d.store.Upsert(d.draft); err != nil {
			d.err = err
		} else {
			d.message = fmt.Sprintf("Saved developer: %s", d.draft.Email)
		}
		d.mode = developersModeList
		return d.loadData
	case "esc":
		d.mode = developersModeList
	}
	return nil
}

func (d *Developers) handleDeleteKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		email := d.developers[d.cursor].Email
		if err := d.store.Delete(email); err != nil {
			d.err = err
		} else {
			d.message = fmt.Sprintf("Deleted developer: %s", email)
		}
		d.mode = developersModeList
		return d.loadData

	case "n", "N", "esc":
		d.mode = developersModeList
	}
	return nil
}

func (d *Developers) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("DEVELOPERS"))
	b.WriteString("\n\n")

	if d.loading {
		b.WriteString("Loading...\n")
		return b.String()
	}

	if d.err != nil {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", d.err)))
		b.WriteString("\n\n")
		d.err = nil
	}

	if d.message != "" {
		b.WriteString(SuccessStyle.Render(d.message))
		b.WriteString("\n\n")
	}

	switch d.mode {
	case developersModeEmail, developersModeName:
		label := "Developer email:"
		if d.mode == developersModeName {
			label = fmt.Sprintf("Name for %s:", d.draft.Email)
		}
		b.WriteString(label + "\n")
		b.WriteString(d.input.View())
		b.WriteString("\n\n")
		b.WriteString(HelpStyle.Render("[enter] Next  [esc] Cancel"))
		return b.String()

	case developersModeGroup:
		b.WriteString(fmt.Sprintf("Group for %s:\n", d.draft.Name))
		for i, tool := range models.AITools {
			if i == d.groupCursor {
				b.WriteString(SelectedStyle.Render("> " + string(tool)))
			} else {
				b.WriteString(NormalStyle.Render("  " + string(tool)))
			}
			b.WriteString("\n")
		}
		b.WriteString(HelpStyle.Render("[enter] Save  [esc] Cancel"))
		return b.String()

	case developersModeDelete:
		if len(d.developers) > 0 {
			b.WriteString(WarningStyle.Render(fmt.Sprintf(
				"Delete developer '%s'? Their commits stay in the database. (y/n)",
				d.developers[d.cursor].Email,
			)))
			b.WriteString("\n")
			return b.String()
		}
	}

	if len(d.developers) == 0 {
		b.WriteString(DimStyle.Render("No developers yet."))
		b.WriteString("\n\n")
	} else {
		for i, dev := range d.developers {
			cursor := "  "
			style := NormalStyle
			if i == d.cursor {
				cursor = "> "
				style = SelectedStyle
			}

			line := fmt.Sprintf("%s%s <%s>", cursor, dev.Name, dev.Email)
			b.WriteString(style.Render(line))
			b.WriteString(" ")
			b.WriteString(toolStyle(string(dev.GroupType)).Render(string(dev.GroupType)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	help := "[a] Add  [d] Delete  [enter] Filter dashboard  [q] Back"
	b.WriteString(HelpStyle.Render(help))

	return b.String()
}
