package modules

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/multierr"
	log "go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanet-platform/lifeexit/internal/lifecycle"
)

var (
	// ErrShuttingDown is returned when the runtime is already shutting down
	// or shut down.
	ErrShuttingDown = errors.New("module runtime is shutting down")
	// ErrVetoed is returned when a module refuses to be closed.
	ErrVetoed = errors.New("module vetoed shutdown")
	// ErrDuplicate is returned when a module with the same name is already
	// registered.
	ErrDuplicate = errors.New("module is already registered")
)

type state int

const (
	running state = iota
	stopping
	stopped
)

// Runtime holds the registered modules and shuts them down on request.
type Runtime struct {
	config  Config
	modules []Module
	state   state
	mu      sync.Mutex

	log *log.Logger
}

// New creates a new module Runtime.
func New(config Config, logger *log.Logger) *Runtime {
	config.Default()
	return &Runtime{
		config: config,
		log:    logger.With(log.String("component", "modules")),
	}
}

// Register adds a module to the runtime.
func (m *Runtime) Register(module Module) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != running {
		return ErrShuttingDown
	}
	for _, registered := range m.modules {
		if registered.Name() == module.Name() {
			return fmt.Errorf("%w: %s", ErrDuplicate, module.Name())
		}
	}

	m.modules = append(m.modules, module)
	return nil
}

// Names returns the names of the registered modules in registration order.
func (m *Runtime) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.modules))
	for _, module := range m.modules {
		names = append(names, module.Name())
	}
	return names
}

// Stopped reports whether every module was closed.
func (m *Runtime) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == stopped
}

// BeginAsyncShutdown shuts the modules down in the background. First every
// module is asked whether it can be closed; a single veto calls onDenied,
// leaves the modules untouched and resolves the future to false. Otherwise
// the modules are closed concurrently and the future resolves to true. Close
// failures are logged and do not change the decision.
func (m *Runtime) BeginAsyncShutdown(onDenied func()) lifecycle.Future {
	future := newFuture[bool]()
	go func() {
		approved, err := m.shutdown(onDenied)
		future.resolve(approved, err)
	}()
	return future
}

func (m *Runtime) shutdown(onDenied func()) (bool, error) {
	m.mu.Lock()
	if m.state != running {
		m.mu.Unlock()
		return false, ErrShuttingDown
	}
	m.state = stopping
	modules := slices.Clone(m.modules)
	m.mu.Unlock()

	if err := m.poll(modules); err != nil {
		m.log.Info("module runtime shutdown denied", log.Error(err))
		m.setState(running)
		if onDenied != nil {
			onDenied()
		}
		return false, nil
	}

	if err := m.close(modules); err != nil {
		m.log.Warn("some modules failed to close", log.Error(err))
	}
	m.setState(stopped)
	m.log.Info("module runtime stopped", log.Int("modules", len(modules)))
	return true, nil
}

// poll asks every module whether it can be closed. The first veto cancels
// the remaining questions.
func (m *Runtime) poll(modules []Module) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.config.VetoTimeout)
	defer cancel()

	wg, ctx := errgroup.WithContext(ctx)
	for _, module := range modules {
		wg.Go(func() error {
			if !module.CanClose(ctx) {
				return fmt.Errorf("%w: %s", ErrVetoed, module.Name())
			}
			return nil
		})
	}
	return wg.Wait()
}

// close closes every module, each within its own timeout.
func (m *Runtime) close(modules []Module) error {
	var (
		errs   error
		errsMu sync.Mutex
		wg     errgroup.Group
	)
	for _, module := range modules {
		wg.Go(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), m.config.CloseTimeout)
			defer cancel()

			if err := module.Close(ctx); err != nil {
				errsMu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("failed to close %s: %w", module.Name(), err))
				errsMu.Unlock()
			}
			return nil
		})
	}
	_ = wg.Wait()
	return errs
}

func (m *Runtime) setState(state state) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}
