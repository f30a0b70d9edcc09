package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanet-platform/lifeexit/internal/lifecycle"
	"github.com/yanet-platform/lifeexit/internal/modules"
	"github.com/yanet-platform/lifeexit/internal/monitoring/metrics/prometheus"
	"github.com/yanet-platform/lifeexit/internal/prompt"
	"github.com/yanet-platform/lifeexit/internal/server"
	"github.com/yanet-platform/lifeexit/internal/session"
	"github.com/yanet-platform/lifeexit/internal/uiloop"
)

// Option is a functional option type for configuring LifeExit.
type Option func(*options)

type options struct {
	terminator lifecycle.Terminator
	input      io.Reader
	output     io.Writer
}

// WithTerminator sets the function ending the process.
func WithTerminator(terminator lifecycle.Terminator) Option {
	return func(o *options) {
		o.terminator = terminator
	}
}

// WithTerminal sets the streams the prompt is shown on. Defaults to the
// standard input and output.
func WithTerminal(input io.Reader, output io.Writer) Option {
	return func(o *options) {
		o.input = input
		o.output = output
	}
}

type LifeExit struct {
	config Config

	loop      *uiloop.Loop
	workspace *session.Workspace
	runtime   *modules.Runtime

	sequencer *lifecycle.Sequencer
	exiter    *lifecycle.Exiter

	server *server.Server

	metrics *prometheus.Provider

	finished     chan struct{} // closed once an approved shutdown completes
	finishedOnce sync.Once

	logger *log.Logger
}

// New creates a new instance of the application.
func New(config Config, logger *log.Logger, opts ...Option) (*LifeExit, error) {
	o := options{
		input:  os.Stdin,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	headless, err := config.Prompt.Headless()
	if err != nil {
		return nil, fmt.Errorf("failed to detect user interface: %w", err)
	}

	provider := prometheus.NewProvider(logger,
		prometheus.WithNamespace("lifeexit"),
		prometheus.WithRuntimeCollectors(),
	)

	loop := uiloop.New(logger)
	runtime := modules.New(config.Modules, logger)
	workspace := session.NewWorkspace(session.NewStore(config.Session.Dir), runtime.Names, logger)

	// The workspace refuses to close while documents are being saved.
	if err := runtime.Register(modules.Func{
		ModuleName: "workspace",
		Veto: func(ctx context.Context) bool {
			return ctx.Err() == nil && !workspace.Busy()
		},
	}); err != nil {
		return nil, err
	}

	m := &LifeExit{
		config:    config,
		loop:      loop,
		workspace: workspace,
		runtime:   runtime,
		metrics:   provider,
		finished:  make(chan struct{}),
		logger:    logger,
	}

	collab := lifecycle.Collaborators{
		Runtime:   runtime,
		Windows:   workspace,
		Persister: workspace,
		Notifier:  prompt.NewNotifier(o.output),
		Warmer:    workspace,
		UI:        loop,
	}
	if !headless {
		collab.Prompter = prompt.New(workspace, o.input, o.output, logger)
	}

	sequencerOpts := []lifecycle.Option{
		lifecycle.WithHeadless(headless),
		lifecycle.WithMetrics(lifecycle.NewMetrics(provider)),
		lifecycle.WithHooks(lifecycle.Hooks{
			OnComplete: m.onComplete,
		}),
	}
	if o.terminator != nil {
		sequencerOpts = append(sequencerOpts, lifecycle.WithTerminator(o.terminator))
	}

	// The server is created last: it is both an endpoint stopped by the
	// sequencer and a client of the exiter.
	var endpoint endpointProxy
	collab.Endpoints = []lifecycle.Endpoint{&endpoint}

	m.sequencer = lifecycle.NewSequencer(config.Lifecycle, collab, logger, sequencerOpts...)
	m.exiter = lifecycle.NewExiter(
		lifecycle.NewLatchManager(),
		lifecycle.NewPump(loop, config.Lifecycle.GetPollInterval(), logger),
		m.sequencer,
		logger,
	)
	m.server = server.New(config.Server, m.exiter, provider, logger)
	endpoint.set(m.server)

	if err := workspace.Restore(); err != nil {
		logger.Warn("failed to restore session", log.Error(err))
	}
	if !headless {
		workspace.Show()
	}

	return m, nil
}

// Workspace returns the workspace of the application.
func (m *LifeExit) Workspace() *session.Workspace {
	return m.workspace
}

// Exit requests the exit on the dispatch goroutine, as closing the main
// window does, and waits for the attempt to finish.
func (m *LifeExit) Exit(status int) lifecycle.Result {
	results := make(chan lifecycle.Result, 1)
	if err := m.loop.Post(func() {
		results <- m.exiter.Exit(status)
	}); err == nil {
		select {
		case result := <-results:
			return result
		case <-m.loop.Done():
			// The event either ran before the loop stopped or was dropped.
			select {
			case result := <-results:
				return result
			default:
			}
		}
	}

	m.logger.Warn("dispatch loop is not running, exit from the caller")
	return m.exiter.Exit(status)
}

// Run starts all components of the application and manages their lifecycle.
// It returns once the context is cancelled or an approved shutdown completes
// without terminating the process.
func (m *LifeExit) Run(ctx context.Context) error {
	// Create an errgroup with a derived context for managing goroutines.
	wg, ctx := errgroup.WithContext(ctx)

	wg.Go(func() error {
		return m.loop.Run(ctx)
	})

	wg.Go(func() error {
		m.sequencer.Run(ctx)
		return nil
	})

	wg.Go(func() error {
		return m.server.Run(ctx)
	})

	wg.Go(func() error {
		m.handleSignals(ctx)
		return nil
	})

	// Stop the components when the context is cancelled or the shutdown
	// completed.
	wg.Go(func() error {
		select {
		case <-ctx.Done():
		case <-m.finished:
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		m.server.Stop()
		m.sequencer.Close()
		m.loop.Stop()

		if err := m.metrics.Shutdown(shutdownCtx); err != nil {
			m.logger.Warn("failed to shutdown metrics", log.Error(err))
		}

		return ctx.Err()
	})

	// Wait for all goroutines in the errgroup to complete.
	err := wg.Wait()
	select {
	case <-m.finished:
		return nil
	default:
		return err
	}
}

// handleSignals turns termination signals into exit requests.
func (m *LifeExit) handleSignals(ctx context.Context) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.finished:
			return
		case sig := <-signals:
			m.logger.Info("signal received, exit requested", log.Stringer("signal", sig))
			go m.Exit(0)
		}
	}
}

func (m *LifeExit) onComplete(result lifecycle.Result) {
	if result.Outcome != lifecycle.OutcomeApproved {
		return
	}
	m.finishedOnce.Do(func() {
		close(m.finished)
	})
}

// endpointProxy lets the sequencer stop an endpoint created after it.
type endpointProxy struct {
	endpoint lifecycle.Endpoint
	mu       sync.Mutex
}

func (m *endpointProxy) set(endpoint lifecycle.Endpoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoint = endpoint
}

// Stop implements lifecycle.Endpoint.
func (m *endpointProxy) Stop() {
	m.mu.Lock()
	endpoint := m.endpoint
	m.mu.Unlock()

	if endpoint != nil {
		endpoint.Stop()
	}
}
