package lifecycle

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	log "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yanet-platform/lifeexit/internal/types/traceid"
)

// fakePrompter answers the unsaved changes prompt with a fixed answer.
type fakePrompter struct {
	answer   bool
	onPrompt func()
	calls    atomic.Int32
}

func (m *fakePrompter) PromptSaveOrDiscard(context.Context) bool {
	m.calls.Add(1)
	if m.onPrompt != nil {
		m.onPrompt()
	}
	return m.answer
}

// fakeRuntime resolves the shutdown with a fixed decision. When hold is set,
// the decision is delivered only after hold is closed.
type fakeRuntime struct {
	approve bool
	err     error
	hold    chan struct{}

	calls   atomic.Int32
	awaited atomic.Int32
}

func (m *fakeRuntime) BeginAsyncShutdown(onDenied func()) Future {
	m.calls.Add(1)
	return &fakeFuture{runtime: m, onDenied: onDenied}
}

type fakeFuture struct {
	runtime  *fakeRuntime
	onDenied func()
}

func (m *fakeFuture) Get(ctx context.Context) (bool, error) {
	m.runtime.awaited.Add(1)
	if m.runtime.hold != nil {
		select {
		case <-m.runtime.hold:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	if !m.runtime.approve && m.runtime.err == nil {
		m.onDenied()
	}
	return m.runtime.approve, m.runtime.err
}

// fakeWindows records the layout saves.
type fakeWindows struct {
	err   error
	calls atomic.Int32
}

func (m *fakeWindows) HideAndSaveWindows() error {
	m.calls.Add(1)
	return m.err
}

// fakePersister records the persistence steps. The step functions, when
// set, replace the default behavior.
type fakePersister struct {
	loader  func() error
	session func() error

	loaderCalls  atomic.Int32
	sessionCalls atomic.Int32
}

func (m *fakePersister) PersistLoaderState() error {
	m.loaderCalls.Add(1)
	if m.loader != nil {
		return m.loader()
	}
	return nil
}

func (m *fakePersister) PersistSessionState() error {
	m.sessionCalls.Add(1)
	if m.session != nil {
		return m.session()
	}
	return nil
}

type fakeEndpoint struct {
	stopped atomic.Bool
}

func (m *fakeEndpoint) Stop() {
	m.stopped.Store(true)
}

type fakeNotifier struct {
	mu   sync.Mutex
	errs []error
}

func (m *fakeNotifier) NotifyError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, err)
}

func (m *fakeNotifier) Errors() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]error(nil), m.errs...)
}

type fakeWarmer struct {
	calls atomic.Int32
}

func (m *fakeWarmer) Warmup(context.Context) error {
	m.calls.Add(1)
	return nil
}

// fixture is an exit coordinator with a running sequencer whose terminator
// records the requested statuses instead of ending the process.
type fixture struct {
	exiter    *Exiter
	sequencer *Sequencer
	latches   *LatchManager

	stop       func() // cancels the sequencer context
	runs       atomic.Int32
	terminated chan int
	logs       *observer.ObservedLogs

	phasesMu sync.Mutex
	phases   []Phase
}

// fixtureOpts tune the fixture.
type fixtureOpts struct {
	config     Config
	collab     Collaborators
	dispatcher Dispatcher
	options    []Option
}

func newFixture(t *testing.T, opts fixtureOpts) *fixture {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := log.New(core)

	config := opts.config
	if config.PollInterval == 0 {
		config.PollInterval = 10 * time.Millisecond
	}

	f := &fixture{
		latches:    NewLatchManager(),
		terminated: make(chan int, 16),
		logs:       logs,
	}

	options := []Option{
		WithTerminator(func(status int) {
			f.terminated <- status
		}),
		WithHooks(Hooks{
			OnRun: func(traceid.ID) {
				f.runs.Add(1)
			},
			OnPhase: func(_ traceid.ID, phase Phase) {
				f.phasesMu.Lock()
				defer f.phasesMu.Unlock()
				f.phases = append(f.phases, phase)
			},
		}),
	}
	options = append(options, opts.options...)

	f.sequencer = NewSequencer(config, opts.collab, logger, options...)
	pump := NewPump(opts.dispatcher, config.PollInterval, logger)
	f.exiter = NewExiter(f.latches, pump, f.sequencer, logger)

	ctx, cancel := context.WithCancel(context.Background())
	f.stop = cancel
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.sequencer.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return f
}

// Phases returns the phases started so far.
func (m *fixture) Phases() []Phase {
	m.phasesMu.Lock()
	defer m.phasesMu.Unlock()
	return append([]Phase(nil), m.phases...)
}

// Terminations returns the statuses the terminator was called with.
func (m *fixture) Terminations() []int {
	var statuses []int
	for {
		select {
		case status := <-m.terminated:
			statuses = append(statuses, status)
		default:
			return statuses
		}
	}
}

// waitJoined blocks until n callers joined the attempt in flight.
func (m *fixture) waitJoined(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return m.logs.FilterMessage("join shutdown in flight").Len() >= n
	}, 5*time.Second, time.Millisecond)
}
