package prompt

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Choice is the answer to the unsaved changes prompt.
type Choice int

const (
	ChoiceCancel Choice = iota
	ChoiceSaveAll
	ChoiceDiscard
)

func (m Choice) String() string {
	switch m {
	case ChoiceCancel:
		return "Cancel"
	case ChoiceSaveAll:
		return "Save all"
	case ChoiceDiscard:
		return "Discard"
	default:
		return fmt.Sprintf("Choice(%d)", int(m))
	}
}

// options in the order they are displayed.
var options = []Choice{ChoiceSaveAll, ChoiceDiscard, ChoiceCancel}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	documentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).PaddingLeft(2)
	optionStyle   = lipgloss.NewStyle().PaddingLeft(2)
	selectedStyle = lipgloss.NewStyle().PaddingLeft(2).Bold(true).Foreground(lipgloss.Color("42"))
	hintStyle     = lipgloss.NewStyle().Faint(true)
)

// Model is the bubbletea model of the unsaved changes prompt.
type Model struct {
	dirty  []string
	cursor int
	choice Choice
	done   bool
}

// NewModel creates the prompt listing the dirty documents.
func NewModel(dirty []string) Model {
	return Model{dirty: dirty}
}

// Choice returns the answer. It is ChoiceCancel until the user answers.
func (m Model) Choice() Choice {
	return m.choice
}

// Done reports whether the user answered.
func (m Model) Done() bool {
	return m.done
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k", "shift+tab":
		m.cursor = (m.cursor + len(options) - 1) % len(options)
	case "down", "j", "tab":
		m.cursor = (m.cursor + 1) % len(options)
	case "enter", " ":
		return m.answer(options[m.cursor])
	case "s":
		return m.answer(ChoiceSaveAll)
	case "d":
		return m.answer(ChoiceDiscard)
	case "c", "esc", "q", "ctrl+c":
		return m.answer(ChoiceCancel)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("The following documents have unsaved changes:"))
	b.WriteString("\n")
	for _, path := range m.dirty {
		b.WriteString(documentStyle.Render(path))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	for i, option := range options {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + option.String()))
		} else {
			b.WriteString(optionStyle.Render("  " + option.String()))
		}
		b.WriteString("\n")
	}
	b.WriteString(hintStyle.Render("s: save all • d: discard • esc: cancel"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) answer(choice Choice) (tea.Model, tea.Cmd) {
	m.choice = choice
	m.done = true
	return m, tea.Quit
}
