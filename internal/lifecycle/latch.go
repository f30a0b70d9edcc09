package lifecycle

import (
	"sync"
	"time"
)

// Latch is a one-shot synchronization object representing a shutdown attempt
// in flight. Releasing it unblocks every waiter and wakes the secondary
// dispatch loop registered by the pump, if any.
type Latch struct {
	done   chan struct{}
	once   sync.Once
	result Result // written once before done is closed

	wakeMu sync.Mutex
	wake   func() // exits the registered secondary loop
}

func newLatch() *Latch {
	return &Latch{
		done: make(chan struct{}),
	}
}

// Release counts the latch down and records the attempt result. Only the
// first call has an effect; it reports whether this call released the latch.
func (m *Latch) Release(result Result) bool {
	released := false
	m.once.Do(func() {
		m.result = result
		close(m.done)
		released = true
	})
	if !released {
		return false
	}

	m.wakeMu.Lock()
	wake := m.wake
	m.wakeMu.Unlock()
	if wake != nil {
		wake()
	}
	return true
}

// Await blocks until the latch is released or the timeout elapses. It
// reports whether the latch was released.
func (m *Latch) Await(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-m.done:
		return true
	case <-timer.C:
		return false
	}
}

// Wait blocks until the latch is released.
func (m *Latch) Wait() {
	<-m.done
}

// Done returns a channel that is closed when the latch is released.
func (m *Latch) Done() <-chan struct{} {
	return m.done
}

// Released reports whether the latch was released.
func (m *Latch) Released() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

// Result returns the result of the attempt. Before the latch is released it
// reports OutcomeInProgress.
func (m *Latch) Result() Result {
	select {
	case <-m.done:
		return m.result
	default:
		return Result{Outcome: OutcomeInProgress}
	}
}

// register installs the function exiting the currently entered secondary
// loop. When the latch is already released, wake is called at once. The
// returned function removes the registration. wake must be idempotent.
func (m *Latch) register(wake func()) (unregister func()) {
	m.wakeMu.Lock()
	m.wake = wake
	m.wakeMu.Unlock()

	// Release may have happened before the registration became visible.
	if m.Released() {
		wake()
	}

	return func() {
		m.wakeMu.Lock()
		defer m.wakeMu.Unlock()
		m.wake = nil
	}
}

// LatchManager holds the latch of the current shutdown attempt. There is at
// most one such latch per process; the application's composition root owns
// the manager.
type LatchManager struct {
	current *Latch
	mu      sync.Mutex
}

// NewLatchManager creates a new LatchManager.
func NewLatchManager() *LatchManager {
	return &LatchManager{}
}

// TryAcquire returns the latch of the attempt in flight and true, or creates
// a new latch and returns it with false. The caller receiving false owns the
// attempt.
func (m *LatchManager) TryAcquire() (*Latch, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return m.current, true
	}
	m.current = newLatch()
	return m.current, false
}

// Current returns the latch of the attempt in flight, or nil.
func (m *LatchManager) Current() *Latch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Forget clears the current latch once it is released. It must only be
// called by the owner of the attempt. A latch that is not released yet stays
// current until it is, so late callers keep joining the same attempt.
func (m *LatchManager) Forget(latch *Latch) {
	if latch.Released() {
		m.clear(latch)
		return
	}

	go func() {
		<-latch.Done()
		m.clear(latch)
	}()
}

func (m *LatchManager) clear(latch *Latch) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == latch {
		m.current = nil
	}
}
