// Package prompt asks the user in the terminal what to do with unsaved
// changes before the application exits, and shows shutdown errors.
package prompt

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "go.uber.org/zap"
)

// Documents is the set of documents the prompt is about.
type Documents interface {
	Dirty() []string
	SaveAll() error
	Discard()
}

// Prompter shows the unsaved changes prompt in the terminal.
type Prompter struct {
	documents Documents
	input     io.Reader
	output    io.Writer

	log *log.Logger
}

// New creates a new Prompter reading the answer from input.
func New(documents Documents, input io.Reader, output io.Writer, logger *log.Logger) *Prompter {
	return &Prompter{
		documents: documents,
		input:     input,
		output:    output,
		log:       logger.With(log.String("component", "prompt")),
	}
}

// PromptSaveOrDiscard asks the user whether to save or discard the unsaved
// changes. It reports whether the exit may proceed: the changes were saved or
// discarded. Without unsaved changes nothing is shown.
func (m *Prompter) PromptSaveOrDiscard(ctx context.Context) bool {
	dirty := m.documents.Dirty()
	if len(dirty) == 0 {
		return true
	}

	program := tea.NewProgram(
		NewModel(dirty),
		tea.WithContext(ctx),
		tea.WithInput(m.input),
		tea.WithOutput(m.output),
	)
	final, err := program.Run()
	if err != nil {
		m.log.Error("failed to run prompt", log.Error(err))
		return false
	}

	model, ok := final.(Model)
	if !ok {
		return false
	}
	return m.apply(model.Choice(), len(dirty))
}

func (m *Prompter) apply(choice Choice, dirty int) bool {
	switch choice {
	case ChoiceSaveAll:
		if err := m.documents.SaveAll(); err != nil {
			m.log.Error("failed to save documents", log.Error(err))
			fmt.Fprintln(m.output, renderError(err))
			return false
		}
		m.log.Info("documents saved", log.Int("count", dirty))
		return true
	case ChoiceDiscard:
		m.documents.Discard()
		m.log.Info("unsaved changes discarded", log.Int("count", dirty))
		return true
	default:
		return false
	}
}

var errorStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("196")).
	Padding(0, 1)

func renderError(err error) string {
	return errorStyle.Render("Error: " + err.Error())
}

// Notifier shows errors to the user in the terminal.
type Notifier struct {
	output io.Writer
}

// NewNotifier creates a new Notifier writing to output.
func NewNotifier(output io.Writer) *Notifier {
	return &Notifier{output: output}
}

// NotifyError implements the error notification of the exit coordinator.
func (m *Notifier) NotifyError(err error) {
	fmt.Fprintln(m.output, renderError(err))
}
