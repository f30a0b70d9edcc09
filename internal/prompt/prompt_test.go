package prompt

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	log "go.uber.org/zap"
)

// testDocuments is an in-memory set of documents.
type testDocuments struct {
	dirty     []string
	saveErr   error
	saved     bool
	discarded bool
}

func (m *testDocuments) Dirty() []string {
	return m.dirty
}

func (m *testDocuments) SaveAll() error {
	m.saved = true
	return m.saveErr
}

func (m *testDocuments) Discard() {
	m.discarded = true
}

// TestPrompter_NothingToSave verifies that no prompt is shown without
// unsaved changes.
func TestPrompter_NothingToSave(t *testing.T) {
	var output bytes.Buffer
	prompter := New(&testDocuments{}, strings.NewReader(""), &output, log.NewNop())

	assert.True(t, prompter.PromptSaveOrDiscard(context.Background()))
	assert.Empty(t, output.String())
}

// TestPrompter_Answers verifies what each answer typed by the user does.
func TestPrompter_Answers(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		saveErr       error
		want          bool
		wantSaved     bool
		wantDiscarded bool
	}{
		{name: "SaveAll", input: "s", want: true, wantSaved: true},
		{name: "SaveFailed", input: "s", saveErr: assert.AnError, want: false, wantSaved: true},
		{name: "Discard", input: "d", want: true, wantDiscarded: true},
		{name: "Cancel", input: "c", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			documents := &testDocuments{dirty: []string{"/a.go"}, saveErr: tt.saveErr}
			var output bytes.Buffer
			prompter := New(documents, strings.NewReader(tt.input), &output, log.NewNop())

			assert.Equal(t, tt.want, prompter.PromptSaveOrDiscard(context.Background()))
			assert.Equal(t, tt.wantSaved, documents.saved)
			assert.Equal(t, tt.wantDiscarded, documents.discarded)
		})
	}
}

// TestNotifier verifies that notified errors are written to the output.
func TestNotifier(t *testing.T) {
	var output bytes.Buffer
	NewNotifier(&output).NotifyError(assert.AnError)
	assert.Contains(t, output.String(), assert.AnError.Error())
}

// TestConfig_Headless verifies the explicit modes.
func TestConfig_Headless(t *testing.T) {
	headless, err := Config{Mode: ModeHeadless}.Headless()
	assert.NoError(t, err)
	assert.True(t, headless)

	headless, err = Config{Mode: ModeTerminal}.Headless()
	assert.NoError(t, err)
	assert.False(t, headless)

	_, err = Config{Mode: "gui"}.Headless()
	assert.Error(t, err)

	config := Config{}
	config.Default()
	assert.Equal(t, ModeAuto, config.Mode)
}
