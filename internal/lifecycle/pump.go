package lifecycle

import (
	"sync"
	"sync/atomic"
	"time"

	log "go.uber.org/zap"

	"github.com/yanet-platform/lifeexit/internal/utils/throttler"
)

// Dispatcher is the capability the pump needs from the UI toolkit: telling
// the dispatch goroutine apart and running a nested dispatch loop on it.
type Dispatcher interface {
	// IsDispatchGoroutine reports whether the caller runs on the dispatch
	// goroutine.
	IsDispatchGoroutine() bool
	// EnterSecondaryLoop dispatches queued events on the calling goroutine
	// until exit is closed. It returns false when the loop could not be
	// entered or was left for any other reason.
	EnterSecondaryLoop(exit <-chan struct{}) bool
}

// Pump waits for a latch. On the dispatch goroutine it keeps queued UI events
// flowing while waiting, by alternating bounded waits with secondary loops.
type Pump struct {
	dispatcher   Dispatcher
	pollInterval time.Duration
	waiting      atomic.Bool // set while the dispatch goroutine is inside Wait
	refused      *throttler.Counter

	log *log.Logger
}

// NewPump creates a new Pump. A nil dispatcher makes every wait a plain
// blocking wait, which is what a headless application needs.
func NewPump(dispatcher Dispatcher, pollInterval time.Duration, logger *log.Logger) *Pump {
	return &Pump{
		dispatcher:   dispatcher,
		pollInterval: pollInterval,
		refused:      throttler.NewCounter(3),
		log:          logger,
	}
}

// Wait blocks until the latch is released.
//
// On the dispatch goroutine nested waits are not allowed: a Wait entered
// while another Wait is active further down the same stack returns at once,
// so the caller must check the latch before relying on its result.
func (m *Pump) Wait(latch *Latch) {
	if !m.onDispatchGoroutine() {
		latch.Wait()
		return
	}

	if !m.waiting.CompareAndSwap(false, true) {
		m.log.Debug("dispatch goroutine is already waiting for shutdown")
		return
	}
	defer m.waiting.Store(false)
	m.refused.Reset()

	for {
		if latch.Await(m.pollInterval) {
			return
		}

		exit := make(chan struct{})
		var once sync.Once
		unregister := latch.register(func() {
			once.Do(func() { close(exit) })
		})

		entered := m.dispatcher.EnterSecondaryLoop(exit)
		unregister()

		if !entered {
			if report, n := m.refused.Allow(); report {
				m.log.Warn("secondary loop was not entered, keep waiting", log.Uint64("times", n))
			}
		}
	}
}

func (m *Pump) onDispatchGoroutine() bool {
	return m.dispatcher != nil && m.dispatcher.IsDispatchGoroutine()
}
