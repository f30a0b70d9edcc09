package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	log "go.uber.org/zap"

	"github.com/yanet-platform/lifeexit/internal/monitoring/metrics"
	"github.com/yanet-platform/lifeexit/internal/types/traceid"
	"github.com/yanet-platform/lifeexit/internal/utils/workerpool"
)

var (
	// ErrUnrecoverable marks a failure after which the remaining persistence
	// steps must not run. Wrap it to make a collaborator error fatal.
	ErrUnrecoverable = errors.New("unrecoverable shutdown failure")
	// ErrPanic wraps a panic recovered from a collaborator or a phase.
	ErrPanic = errors.New("panic during shutdown")
	// ErrStopped is reported by an attempt left unfinished when the
	// sequencer stopped.
	ErrStopped = errors.New("shutdown sequencer is stopped")
)

// Hooks observe the progress of shutdown attempts. Every hook is optional.
type Hooks struct {
	// OnRun is called once per attempt on the goroutine calling Start,
	// before the first phase is scheduled.
	OnRun func(id traceid.ID)
	// OnPhase is called on the worker goroutine when a phase starts.
	OnPhase func(id traceid.ID, phase Phase)
	// OnComplete is called right before the latch of the attempt is
	// released. It always follows OnRun.
	OnComplete func(result Result)
}

// Option is a functional option type for configuring Sequencer.
type Option func(*Sequencer)

// WithTerminator sets the function ending the process. Defaults to
// [os.Exit].
func WithTerminator(terminator Terminator) Option {
	return func(m *Sequencer) {
		m.terminator = terminator
	}
}

// WithFatalPolicy sets the predicate classifying persistence errors as
// fatal. Defaults to errors.Is(err, ErrUnrecoverable).
func WithFatalPolicy(isFatal func(error) bool) Option {
	return func(m *Sequencer) {
		m.isFatal = isFatal
	}
}

// WithHooks sets the hooks observing shutdown attempts.
func WithHooks(hooks Hooks) Option {
	return func(m *Sequencer) {
		m.hooks = hooks
	}
}

// WithMetrics sets the instruments recorded by the sequencer.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Sequencer) {
		m.metrics = metrics
	}
}

// WithHeadless marks the application as running without a user interface:
// neither the prompt nor the windows are touched.
func WithHeadless(headless bool) Option {
	return func(m *Sequencer) {
		m.headless = headless
	}
}

// Sequencer drives a shutdown attempt through its phases on a dedicated
// worker goroutine. Each phase schedules its successor, so only one phase
// runs at a time and the worker never waits for itself.
type Sequencer struct {
	config   Config
	collab   Collaborators
	worker   *workerpool.Serial
	headless bool

	terminator Terminator
	isFatal    func(error) bool
	hooks      Hooks
	metrics    *Metrics

	current     atomic.Pointer[attempt] // attempt in flight
	uiCallbacks atomic.Int32               // UI callbacks running on the dispatch goroutine

	log *log.Logger
}

// NewSequencer creates a new Sequencer. Run must be called to start the
// worker goroutine.
func NewSequencer(config Config, collab Collaborators, logger *log.Logger, opts ...Option) *Sequencer {
	logger = logger.With(log.String("component", "sequencer"))
	m := &Sequencer{
		config:     config,
		collab:     collab,
		worker:     workerpool.NewSerial(logger),
		terminator: exitProcess,
		isFatal: func(err error) bool {
			return errors.Is(err, ErrUnrecoverable)
		},
		metrics: NewMetrics(metrics.NopProvider{}),
		log:     logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run executes shutdown phases until the context is cancelled or Close is
// called. An attempt still in flight when Run returns is denied.
func (m *Sequencer) Run(ctx context.Context) {
	m.worker.Run(ctx)
	m.worker.Close()

	if a := m.current.Load(); a != nil {
		a.log.Warn("shutdown sequencer stopped during shutdown")
		m.complete(*a, OutcomeDenied, ErrStopped)
	}
}

// Close stops accepting new attempts. Phases already queued still run.
func (m *Sequencer) Close() {
	m.worker.Close()
}

// Current returns the ID of the attempt in flight.
func (m *Sequencer) Current() (traceid.ID, bool) {
	a := m.current.Load()
	if a == nil {
		return "", false
	}
	return a.id, true
}

// Start begins a shutdown attempt that ends by releasing latch. When an error
// is returned the attempt could not be scheduled and latch is already
// released as denied.
func (m *Sequencer) Start(latch *Latch, status int) error {
	a := attempt{
		id:        traceid.Generate(),
		latch:     latch,
		status:    status,
		started:   time.Now(),
		completed: &atomic.Bool{},
	}
	a.log = m.log.With(log.Stringer("attempt", a.id), log.Int("status", status))

	m.current.Store(&a)
	a.log.Info("shutdown started")
	m.metrics.started()
	if m.hooks.OnRun != nil {
		m.hooks.OnRun(a.id)
	}

	if err := m.schedule(PhaseRequestExit, a, m.requestExit); err != nil {
		err = fmt.Errorf("failed to schedule shutdown: %w", err)
		m.complete(a, OutcomeDenied, err)
		return err
	}
	return nil
}

func (m *Sequencer) clearCurrent(id traceid.ID) {
	if current := m.current.Load(); current != nil && current.id == id {
		m.current.CompareAndSwap(current, nil)
	}
}

// inPhase reports whether the caller runs as part of a shutdown phase: on
// the worker goroutine, or on the dispatch goroutine inside a UI callback the
// worker is waiting for.
func (m *Sequencer) inPhase(onDispatch bool) bool {
	if m.worker.IsWorkerGoroutine() {
		return true
	}
	return onDispatch && m.uiCallbacks.Load() > 0
}

// schedule queues a phase of the attempt on the worker.
func (m *Sequencer) schedule(phase Phase, a attempt, fn phaseFunc) error {
	return m.worker.Add(workerpool.WorkerFunc(func(ctx context.Context) {
		m.runPhase(ctx, phase, a, fn)
	}))
}

// next schedules the successor phase. An attempt whose successor cannot be
// scheduled is denied.
func (m *Sequencer) next(phase Phase, a attempt, fn phaseFunc) {
	if err := m.schedule(phase, a, fn); err != nil {
		a.log.Error("failed to schedule shutdown phase",
			log.Stringer("phase", phase),
			log.Error(err),
		)
		m.complete(a, OutcomeDenied, err)
	}
}

func (m *Sequencer) runPhase(ctx context.Context, phase Phase, a attempt, fn phaseFunc) {
	started := time.Now()
	defer func() {
		m.metrics.phase(phase, time.Since(started))

		if r := recover(); r != nil {
			err := panicError(r)
			a.log.Error("shutdown phase panicked",
				log.Stringer("phase", phase),
				log.Error(err),
			)
			m.complete(a, OutcomeDenied, err)
		}
	}()

	a.log.Debug("shutdown phase started", log.Stringer("phase", phase))
	if m.hooks.OnPhase != nil {
		m.hooks.OnPhase(a.id, phase)
	}
	fn(ctx, a)
}

// complete moves the attempt to its terminal state and releases the latch.
// Only the first call per attempt has an effect.
func (m *Sequencer) complete(a attempt, outcome Outcome, err error) {
	if !a.completed.CompareAndSwap(false, true) {
		return
	}

	result := Result{
		Attempt:  a.id,
		Outcome:  outcome,
		Status:   a.status,
		Duration: time.Since(a.started),
		Err:      err,
	}
	defer a.latch.Release(result)

	m.clearCurrent(a.id)
	a.log.Info("shutdown finished",
		log.Stringer("outcome", outcome),
		log.Duration("duration", result.Duration),
		log.Error(err),
	)
	m.metrics.finished(outcome)
	if m.hooks.OnComplete != nil {
		m.hooks.OnComplete(result)
	}
}

// onUI runs fn on the dispatch goroutine when an invoker is configured, and
// on the calling goroutine otherwise. A panic in fn is returned as an error.
func (m *Sequencer) onUI(ctx context.Context, fn func() error) error {
	if m.collab.UI == nil {
		return call(fn)
	}

	var err error
	if invokeErr := m.collab.UI.InvokeAndWait(ctx, func() {
		// Counted only while fn runs: events dispatched before it are not
		// part of the attempt.
		m.uiCallbacks.Add(1)
		defer m.uiCallbacks.Add(-1)
		err = call(fn)
	}); invokeErr != nil {
		return fmt.Errorf("failed to run on dispatch goroutine: %w", invokeErr)
	}
	return err
}

// call runs a collaborator function converting a panic into an error.
func call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return fn()
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("%w: %w", ErrPanic, err)
	}
	return fmt.Errorf("%w: %v", ErrPanic, r)
}
