package lifecycle

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	log "go.uber.org/zap"

	"github.com/yanet-platform/lifeexit/internal/types/traceid"
)

// attempt is the state of a shutdown attempt passed from phase to phase.
// Phases receive a copy; only completed is shared.
type attempt struct {
	id      traceid.ID
	latch   *Latch
	status  int
	started time.Time

	future   Future // module runtime shutdown, set by requestExit
	approved bool   // runtime decision, set by awaitRuntimeShutdown
	err      error  // error propagated into the result

	completed *atomic.Bool
	log       *log.Logger
}

type phaseFunc func(ctx context.Context, a attempt)

// resolvedFuture is a Future whose value is known upfront.
type resolvedFuture struct {
	approved bool
	err      error
}

func (m resolvedFuture) Get(context.Context) (bool, error) {
	return m.approved, m.err
}

func exitProcess(status int) {
	os.Exit(status)
}

// requestExit asks the user about unsaved changes and starts the module
// runtime shutdown.
func (m *Sequencer) requestExit(ctx context.Context, a attempt) {
	if m.config.WarmClose && m.collab.Warmer != nil {
		if err := call(func() error { return m.collab.Warmer.Warmup(ctx) }); err != nil {
			a.log.Warn("warm-up failed", log.Error(err))
		}
	}

	if !m.confirm(ctx, a) {
		a.log.Info("shutdown aborted by user")
		m.complete(a, OutcomeAborted, nil)
		return
	}

	a.future = m.beginRuntimeShutdown(a)
	m.next(PhaseStopInfrastructure, a, m.stopInfrastructure)
}

// confirm reports whether the shutdown may proceed with respect to unsaved
// changes. A prompt that cannot be shown aborts the shutdown, so no data is
// lost silently.
func (m *Sequencer) confirm(ctx context.Context, a attempt) bool {
	if m.headless || m.config.SkipPrompt || m.collab.Prompter == nil {
		return true
	}

	proceed := false
	err := m.onUI(ctx, func() error {
		proceed = m.collab.Prompter.PromptSaveOrDiscard(ctx)
		return nil
	})
	if err != nil {
		a.log.Error("failed to prompt for unsaved changes", log.Error(err))
		return false
	}
	return proceed
}

func (m *Sequencer) beginRuntimeShutdown(a attempt) Future {
	if m.collab.Runtime == nil {
		return resolvedFuture{approved: true}
	}

	var future Future
	err := call(func() error {
		future = m.collab.Runtime.BeginAsyncShutdown(func() {
			a.log.Info("module vetoed shutdown")
		})
		return nil
	})
	if err != nil {
		return resolvedFuture{err: fmt.Errorf("failed to begin module runtime shutdown: %w", err)}
	}
	if future == nil {
		return resolvedFuture{approved: true}
	}
	return future
}

// stopInfrastructure stops the endpoints and hides the windows.
func (m *Sequencer) stopInfrastructure(ctx context.Context, a attempt) {
	for _, endpoint := range m.collab.Endpoints {
		if err := call(func() error {
			endpoint.Stop()
			return nil
		}); err != nil {
			a.log.Warn("failed to stop endpoint", log.Error(err))
		}
	}

	if !m.headless && m.collab.Windows != nil {
		if err := m.onUI(ctx, m.collab.Windows.HideAndSaveWindows); err != nil {
			a.log.Error("failed to save windows", log.Error(err))
			m.notify(ctx, a, err)
		}
	}

	if m.config.ExitWhenInvisible {
		a.log.Info("windows are hidden, terminate without waiting for modules")
		m.next(PhaseTerminate, a, m.terminate)
		return
	}
	m.next(PhaseAwaitRuntimeShutdown, a, m.awaitRuntimeShutdown)
}

func (m *Sequencer) notify(ctx context.Context, a attempt, err error) {
	if m.collab.Notifier == nil {
		return
	}
	if notifyErr := m.onUI(ctx, func() error {
		m.collab.Notifier.NotifyError(err)
		return nil
	}); notifyErr != nil {
		a.log.Warn("failed to notify user", log.Error(notifyErr))
	}
}

// awaitRuntimeShutdown blocks the worker until the module runtime decides.
// Any failure to get the decision is treated as a denial.
func (m *Sequencer) awaitRuntimeShutdown(ctx context.Context, a attempt) {
	err := call(func() error {
		var err error
		a.approved, err = a.future.Get(ctx)
		return err
	})

	switch {
	case err != nil:
		a.log.Warn("failed to await module runtime shutdown", log.Error(err))
		a.approved = false
	case !a.approved:
		a.log.Info("module runtime denied shutdown")
	}

	m.next(PhaseFinalize, a, m.finalize)
}

// finalize persists the state of an approved shutdown, or ends a denied one.
func (m *Sequencer) finalize(_ context.Context, a attempt) {
	if !a.approved {
		m.complete(a, OutcomeDenied, nil)
		return
	}

	a.err = m.persist(a)
	m.next(PhaseTerminate, a, m.terminate)
}

// persist runs every persistence step. Recoverable failures are logged and
// do not stop the others; a fatal one skips the remaining steps and is
// returned.
func (m *Sequencer) persist(a attempt) error {
	if m.collab.Persister == nil {
		return nil
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"loader", m.collab.Persister.PersistLoaderState},
		{"session", m.collab.Persister.PersistSessionState},
	}

	var errs error
	defer func() {
		if errs != nil {
			a.log.Error("failed to persist state", log.Error(errs))
		}
	}()

	for _, step := range steps {
		err := call(step.fn)
		if err == nil {
			continue
		}

		m.metrics.persistFailed(step.name)
		err = fmt.Errorf("failed to persist %s state: %w", step.name, err)
		if m.isFatal(err) {
			a.log.Error("unrecoverable persistence failure, skip remaining steps",
				log.String("step", step.name),
				log.Error(err),
			)
			return err
		}
		errs = multierr.Append(errs, err)
	}
	return nil
}

// terminate ends the process. The latch is released even when the
// terminator returns or panics.
func (m *Sequencer) terminate(_ context.Context, a attempt) {
	defer m.complete(a, OutcomeApproved, a.err)

	if m.config.NoExit {
		a.log.Info("process termination is disabled")
		return
	}

	a.log.Info("terminate process")
	m.terminator(a.status)
}
