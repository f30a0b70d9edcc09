// Package workerpool provides a single worker that executes submitted tasks
// strictly one after another on a dedicated goroutine.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
	log "go.uber.org/zap"
)

// ErrClosed is returned when a task is submitted to a closed worker.
var ErrClosed = errors.New("worker is closed")

// Worker is an interface that represents a task to be executed by the worker.
type Worker interface {
	Run(ctx context.Context)
}

// WorkerFunc adapts an ordinary function to the Worker interface.
type WorkerFunc func(ctx context.Context)

// Run implements Worker.
func (f WorkerFunc) Run(ctx context.Context) {
	f(ctx)
}

// Serial executes workers in submission order on a single goroutine.
//
// The queue is unbounded: Add never blocks, so a running worker may submit
// its successor without deadlocking against itself.
type Serial struct {
	queue   []Worker      // pending workers in FIFO order
	closed  bool          // set by Close, no more workers are accepted
	queueMu sync.Mutex    // protects queue and closed
	wake    chan struct{} // signals the runner that the queue changed
	done    chan struct{} // closed when Run returns

	gid atomic.Int64 // id of the goroutine executing Run

	log *log.Logger
}

// NewSerial creates a new instance of Serial.
func NewSerial(logger *log.Logger) *Serial {
	return &Serial{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		log:  logger,
	}
}

// Run executes queued workers one by one until the context is cancelled or
// the worker is closed and drained. It must be called once.
func (m *Serial) Run(ctx context.Context) {
	m.gid.Store(goid.Get())
	defer func() {
		m.gid.Store(0)
		close(m.done)
	}()

	for {
		w, ok, closed := m.pop()
		if ok {
			m.execute(ctx, w)
			continue
		}
		if closed {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-m.wake:
		}
	}
}

// Add enqueues a worker for execution.
func (m *Serial) Add(w Worker) error {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.queue = append(m.queue, w)

	// Non-blocking notification: a pending signal already covers this worker.
	select {
	case m.wake <- struct{}{}:
	default:
	}
	return nil
}

// Close stops accepting workers. Workers already queued are still executed
// by a running Run.
func (m *Serial) Close() {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Done returns a channel that is closed when Run returns.
func (m *Serial) Done() <-chan struct{} {
	return m.done
}

// IsWorkerGoroutine reports whether the caller runs on the goroutine
// executing Run.
func (m *Serial) IsWorkerGoroutine() bool {
	id := m.gid.Load()
	return id != 0 && id == goid.Get()
}

func (m *Serial) pop() (w Worker, ok bool, closed bool) {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()

	if len(m.queue) == 0 {
		return nil, false, m.closed
	}
	w = m.queue[0]
	m.queue[0] = nil
	m.queue = m.queue[1:]
	return w, true, m.closed
}

// execute runs a single worker. A panicking worker is logged and does not
// take the runner down with it.
func (m *Serial) execute(ctx context.Context, w Worker) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("worker panicked", log.Error(fmt.Errorf("%v", r)))
		}
	}()
	w.Run(ctx)
}
