package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"go.uber.org/multierr"
	log "go.uber.org/zap"
)

// Names of the stored records.
const (
	layoutRecord  = "layout"
	loaderRecord  = "loader"
	sessionRecord = "session"
)

// ErrUnknownDocument is returned for a document that is not open.
var ErrUnknownDocument = errors.New("document is not open")

// Document is a file opened in the workspace.
type Document struct {
	Path    string
	Content string
	Dirty   bool
}

// Layout describes the main window.
type Layout struct {
	Visible bool   `yaml:"visible"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Active  string `yaml:"active,omitempty"`
}

// LoaderState is what the loader needs to start the same set of modules.
type LoaderState struct {
	Modules []string  `yaml:"modules"`
	SavedAt time.Time `yaml:"saved_at"`
}

// State lists the documents reopened on the next start.
type State struct {
	Documents []string `yaml:"documents"`
	Active    string   `yaml:"active,omitempty"`
}

// Workspace holds the open documents and the window layout.
type Workspace struct {
	documents []*Document // in opening order
	layout    Layout
	saving    int // number of SaveAll calls in progress
	mu        sync.Mutex

	store   *Store
	modules func() []string // source of the loader state

	log *log.Logger
}

// NewWorkspace creates a new Workspace persisting its state in the store.
// modules lists the modules the loader should start next time.
func NewWorkspace(store *Store, modules func() []string, logger *log.Logger) *Workspace {
	return &Workspace{
		layout: Layout{
			Width:  1280,
			Height: 800,
		},
		store:   store,
		modules: modules,
		log:     logger.With(log.String("component", "workspace")),
	}
}

// Restore loads the layout and reopens the documents of the previous
// session. Missing records are not an error.
func (m *Workspace) Restore() error {
	var layout Layout
	if err := m.store.Load(layoutRecord, &layout); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	var state State
	if err := m.store.Load(sessionRecord, &state); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if layout.Width > 0 && layout.Height > 0 {
		m.layout.Width, m.layout.Height = layout.Width, layout.Height
	}
	for _, path := range state.Documents {
		if m.find(path) == nil {
			m.documents = append(m.documents, &Document{Path: path})
		}
	}
	m.layout.Active = state.Active
	return nil
}

// Warmup reads from disk the content of the clean documents that have not
// been loaded yet, as reopening the session would.
func (m *Workspace) Warmup(ctx context.Context) error {
	var pending []string
	m.mu.Lock()
	for _, document := range m.documents {
		if !document.Dirty && document.Content == "" {
			pending = append(pending, document.Path)
		}
	}
	m.mu.Unlock()

	var errs error
	for _, path := range pending {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to load %s: %w", path, err))
			continue
		}

		m.mu.Lock()
		if document := m.find(path); document != nil && !document.Dirty {
			document.Content = string(content)
		}
		m.mu.Unlock()
	}
	return errs
}

// Show makes the main window visible.
func (m *Workspace) Show() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layout.Visible = true
}

// Layout returns the current window layout.
func (m *Workspace) Layout() Layout {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.layout
}

// Open opens a document, or activates it when it is already open.
func (m *Workspace) Open(path string, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.find(path) == nil {
		m.documents = append(m.documents, &Document{Path: path, Content: content})
	}
	m.layout.Active = path
}

// Edit replaces the content of an open document and marks it dirty.
func (m *Workspace) Edit(path string, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	document := m.find(path)
	if document == nil {
		return fmt.Errorf("%w: %s", ErrUnknownDocument, path)
	}
	document.Content = content
	document.Dirty = true
	return nil
}

// Close closes a document dropping its unsaved changes.
func (m *Workspace) Close(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.documents = slices.DeleteFunc(m.documents, func(document *Document) bool {
		return document.Path == path
	})
	if m.layout.Active == path {
		m.layout.Active = ""
	}
}

// Documents returns a copy of the open documents.
func (m *Workspace) Documents() []Document {
	m.mu.Lock()
	defer m.mu.Unlock()

	documents := make([]Document, 0, len(m.documents))
	for _, document := range m.documents {
		documents = append(documents, *document)
	}
	return documents
}

// Dirty returns the paths of the documents with unsaved changes.
func (m *Workspace) Dirty() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var dirty []string
	for _, document := range m.documents {
		if document.Dirty {
			dirty = append(dirty, document.Path)
		}
	}
	return dirty
}

// Busy reports whether documents are being saved.
func (m *Workspace) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saving > 0
}

// SaveAll writes every dirty document to disk. A document that fails to be
// written stays dirty; the others are saved anyway.
func (m *Workspace) SaveAll() error {
	m.mu.Lock()
	m.saving++
	pending := make([]Document, 0, len(m.documents))
	for _, document := range m.documents {
		if document.Dirty {
			pending = append(pending, *document)
		}
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.saving--
		m.mu.Unlock()
	}()

	var errs error
	for _, document := range pending {
		if err := writeFile(document.Path, []byte(document.Content)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to save %s: %w", document.Path, err))
			continue
		}
		m.markSaved(document)
	}
	return errs
}

// Discard drops every unsaved change.
func (m *Workspace) Discard() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, document := range m.documents {
		document.Dirty = false
	}
}

// HideAndSaveWindows hides the main window and stores its layout.
func (m *Workspace) HideAndSaveWindows() error {
	m.mu.Lock()
	m.layout.Visible = false
	layout := m.layout
	m.mu.Unlock()

	if err := m.store.Save(layoutRecord, layout); err != nil {
		return fmt.Errorf("failed to save window layout: %w", err)
	}
	m.log.Debug("window layout saved")
	return nil
}

// PersistLoaderState stores the modules the loader should start next time.
func (m *Workspace) PersistLoaderState() error {
	var modules []string
	if m.modules != nil {
		modules = m.modules()
	}

	state := LoaderState{
		Modules: modules,
		SavedAt: time.Now().UTC(),
	}
	if err := m.store.Save(loaderRecord, state); err != nil {
		return fmt.Errorf("failed to save loader state: %w", err)
	}
	return nil
}

// PersistSessionState stores the documents to reopen next time.
func (m *Workspace) PersistSessionState() error {
	m.mu.Lock()
	state := State{Active: m.layout.Active}
	for _, document := range m.documents {
		state.Documents = append(state.Documents, document.Path)
	}
	m.mu.Unlock()

	if err := m.store.Save(sessionRecord, state); err != nil {
		return fmt.Errorf("failed to save session state: %w", err)
	}
	m.log.Debug("session state saved", log.Int("documents", len(state.Documents)))
	return nil
}

// markSaved clears the dirty flag unless the document changed while it was
// being written.
func (m *Workspace) markSaved(saved Document) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if document := m.find(saved.Path); document != nil && document.Content == saved.Content {
		document.Dirty = false
	}
}

func (m *Workspace) find(path string) *Document {
	for _, document := range m.documents {
		if document.Path == path {
			return document
		}
	}
	return nil
}
