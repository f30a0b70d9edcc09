package lifecycle

import (
	"fmt"
	"time"

	"github.com/yanet-platform/lifeexit/internal/types/traceid"
)

// Outcome is the final state of a shutdown attempt.
type Outcome int

const (
	// OutcomeInProgress is reported to callers that returned before the
	// attempt they joined reached a terminal state.
	OutcomeInProgress Outcome = iota
	// OutcomeApproved means the module runtime approved the shutdown and the
	// terminate phase ran.
	OutcomeApproved
	// OutcomeDenied means the module runtime denied the shutdown (or could
	// not be awaited). The application keeps running.
	OutcomeDenied
	// OutcomeAborted means the user declined the unsaved changes prompt.
	OutcomeAborted
)

func (m Outcome) String() string {
	switch m {
	case OutcomeInProgress:
		return "in_progress"
	case OutcomeApproved:
		return "approved"
	case OutcomeDenied:
		return "denied"
	case OutcomeAborted:
		return "aborted"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// Phase is a step of the shutdown sequence.
type Phase int

const (
	PhaseRequestExit Phase = iota + 1
	PhaseStopInfrastructure
	PhaseAwaitRuntimeShutdown
	PhaseFinalize
	PhaseTerminate
)

func (m Phase) String() string {
	switch m {
	case PhaseRequestExit:
		return "request_exit"
	case PhaseStopInfrastructure:
		return "stop_infrastructure"
	case PhaseAwaitRuntimeShutdown:
		return "await_runtime_shutdown"
	case PhaseFinalize:
		return "finalize"
	case PhaseTerminate:
		return "terminate"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// Result describes how a shutdown attempt ended.
type Result struct {
	// Attempt identifies the shutdown attempt.
	Attempt traceid.ID
	// Outcome of the attempt.
	Outcome Outcome
	// Status is the exit status the attempt was started with.
	Status int
	// Duration from the start of the attempt to its terminal state.
	Duration time.Duration
	// Err is the error propagated out of the attempt, if any. Recoverable
	// collaborator failures are logged and never reported here.
	Err error
}
