// Package uiloop implements the event-dispatch loop of the application: a
// single goroutine that owns all UI state and executes posted events one at a
// time. The loop supports nested (secondary) dispatch, which lets code running
// on the dispatch goroutine wait for something without freezing the UI.
package uiloop

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
	log "go.uber.org/zap"
)

var (
	// ErrStopped is returned when an event is posted to a stopped loop.
	ErrStopped = errors.New("dispatch loop is stopped")

	// ErrAlreadyRunning is returned when Run is called more than once.
	ErrAlreadyRunning = errors.New("dispatch loop is already running")
)

// Event is a unit of work executed on the dispatch goroutine.
type Event func()

// Loop is an event-dispatch loop.
type Loop struct {
	events   []Event       // pending events in FIFO order
	eventsMu sync.Mutex    // protects events
	wake     chan struct{} // signals that an event was posted

	gid     atomic.Int64 // id of the dispatch goroutine, zero if not running
	running atomic.Bool
	depth   atomic.Int32 // number of secondary loops currently entered

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	log *log.Logger
}

// New creates a new Loop. The loop does not dispatch events until Run is
// called.
func New(logger *log.Logger) *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
		log:  logger.With(log.String("component", "uiloop")),
	}
}

// Run dispatches events on the calling goroutine until the context is
// cancelled or Stop is called. The goroutine is locked to its OS thread for
// the whole lifetime of the loop, as native UI toolkits require.
func (m *Loop) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	m.gid.Store(goid.Get())
	defer func() {
		m.gid.Store(0)
		close(m.done)
	}()

	m.log.Info("running dispatch loop")
	defer m.log.Info("dispatch loop stopped")

	for {
		if event, ok := m.next(); ok {
			m.dispatch(event)
			continue
		}

		select {
		case <-ctx.Done():
			m.Stop()
			return nil
		case <-m.stop:
			return nil
		case <-m.wake:
		}
	}
}

// Stop terminates the loop. Events that were not dispatched yet are dropped.
func (m *Loop) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
}

// Done returns a channel that is closed when Run returns.
func (m *Loop) Done() <-chan struct{} {
	return m.done
}

// Post enqueues an event for dispatch. It never blocks.
func (m *Loop) Post(event Event) error {
	select {
	case <-m.stop:
		return ErrStopped
	default:
	}

	m.eventsMu.Lock()
	m.events = append(m.events, event)
	m.eventsMu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return nil
}

// InvokeAndWait runs fn on the dispatch goroutine and waits for it to
// return. Called from the dispatch goroutine, fn is run directly.
func (m *Loop) InvokeAndWait(ctx context.Context, fn func()) error {
	if m.IsDispatchGoroutine() {
		fn()
		return nil
	}

	done := make(chan struct{})
	if err := m.Post(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.stop:
		return ErrStopped
	}
}

// IsDispatchGoroutine reports whether the caller runs on the dispatch
// goroutine.
func (m *Loop) IsDispatchGoroutine() bool {
	id := m.gid.Load()
	return id != 0 && id == goid.Get()
}

// EnterSecondaryLoop dispatches events on the calling goroutine until exit is
// closed. It must be called from the dispatch goroutine. It returns true when
// the secondary loop was left through exit, and false when it could not be
// entered or the loop was stopped while inside.
func (m *Loop) EnterSecondaryLoop(exit <-chan struct{}) bool {
	if !m.IsDispatchGoroutine() {
		return false
	}

	depth := m.depth.Add(1)
	defer m.depth.Add(-1)
	m.log.Debug("entering secondary loop", log.Int32("depth", depth))

	for {
		select {
		case <-exit:
			return true
		case <-m.stop:
			return false
		default:
		}

		if event, ok := m.next(); ok {
			m.dispatch(event)
			continue
		}

		select {
		case <-exit:
			return true
		case <-m.stop:
			return false
		case <-m.wake:
		}
	}
}

// Depth returns the number of secondary loops currently entered.
func (m *Loop) Depth() int {
	return int(m.depth.Load())
}

func (m *Loop) next() (Event, bool) {
	m.eventsMu.Lock()
	defer m.eventsMu.Unlock()

	if len(m.events) == 0 {
		return nil, false
	}
	event := m.events[0]
	m.events[0] = nil
	m.events = m.events[1:]
	return event, true
}

// dispatch executes a single event. A panicking event is logged and the loop
// keeps running.
func (m *Loop) dispatch(event Event) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("event panicked", log.Error(fmt.Errorf("%v", r)))
		}
	}()
	event()
}
