// Package lifecycle coordinates the termination of the application.
//
// Any goroutine may request the exit any number of times; the first request
// starts a shutdown attempt and every concurrent request joins it. The
// attempt runs on a dedicated worker goroutine through a fixed sequence of
// phases: it asks the user about unsaved changes, stops the command
// endpoints, hides the windows, waits for the module runtime, persists the
// session and finally terminates the process. A request made on the dispatch
// goroutine keeps the user interface responsive while it waits.
package lifecycle

import (
	"sync/atomic"

	log "go.uber.org/zap"

	"github.com/yanet-platform/lifeexit/internal/types/traceid"
)

// Status describes the shutdown attempt in flight.
type Status struct {
	InFlight bool       `json:"in_flight"`
	Attempt  traceid.ID `json:"attempt,omitempty"`
}

// Exiter is the entry point requesting the application exit.
type Exiter struct {
	latches   *LatchManager
	pump      *Pump
	sequencer *Sequencer
	exiting   atomic.Bool // set while the dispatch goroutine owns an attempt

	log *log.Logger
}

// NewExiter creates a new Exiter.
func NewExiter(latches *LatchManager, pump *Pump, sequencer *Sequencer, logger *log.Logger) *Exiter {
	return &Exiter{
		latches:   latches,
		pump:      pump,
		sequencer: sequencer,
		log:       logger.With(log.String("component", "exiter")),
	}
}

// Exit requests the application exit with the given status and waits for the
// shutdown attempt to finish. When the process is terminated Exit does not
// return.
//
// A request that cannot wait without deadlocking the attempt returns
// OutcomeInProgress at once: a request made from a shutdown phase or from a
// UI callback of the attempt, and a nested request on the dispatch goroutine.
func (m *Exiter) Exit(status int) Result {
	inProgress := Result{Outcome: OutcomeInProgress, Status: status}

	onDispatch := m.pump.onDispatchGoroutine()
	if onDispatch && m.exiting.Load() {
		m.log.Debug("dispatch goroutine is already exiting", log.Int("status", status))
		return inProgress
	}
	if m.sequencer.inPhase(onDispatch) {
		m.log.Debug("exit requested by the shutdown sequence", log.Int("status", status))
		if id, ok := m.sequencer.Current(); ok {
			inProgress.Attempt = id
		}
		return inProgress
	}

	latch, inFlight := m.latches.TryAcquire()
	if inFlight {
		m.log.Debug("join shutdown in flight", log.Int("status", status))
		m.pump.Wait(latch)
		return latch.Result()
	}
	defer m.latches.Forget(latch)

	if onDispatch {
		m.exiting.Store(true)
		defer m.exiting.Store(false)
	}

	if err := m.sequencer.Start(latch, status); err != nil {
		m.log.Error("failed to start shutdown", log.Int("status", status), log.Error(err))
		return latch.Result()
	}

	m.pump.Wait(latch)
	return latch.Result()
}

// Status returns the state of the shutdown attempt in flight.
func (m *Exiter) Status() Status {
	if m.latches.Current() == nil {
		return Status{}
	}
	id, _ := m.sequencer.Current()
	return Status{InFlight: true, Attempt: id}
}
