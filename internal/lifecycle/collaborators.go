package lifecycle

import (
	"context"
)

// Prompter asks the user what to do with unsaved changes. It is called on
// the dispatch goroutine when one is available. True means proceed with the
// exit (after saving or discarding), false means abort it.
type Prompter interface {
	PromptSaveOrDiscard(ctx context.Context) bool
}

// Future is the pending result of the module runtime shutdown. Get blocks
// until the runtime decides; true means the runtime approved termination.
type Future interface {
	Get(ctx context.Context) (bool, error)
}

// Runtime is the module runtime. BeginAsyncShutdown starts tearing the
// modules down in the background; onDenied is called when a module vetoes.
type Runtime interface {
	BeginAsyncShutdown(onDenied func()) Future
}

// Windows hides the main window and persists the window layout.
type Windows interface {
	HideAndSaveWindows() error
}

// Persister saves the state the next start of the application restores.
type Persister interface {
	PersistLoaderState() error
	PersistSessionState() error
}

// Endpoint is a listening endpoint that must stop accepting requests once an
// exit is accepted, for example the single-instance command socket.
type Endpoint interface {
	Stop()
}

// Notifier shows an error to the user, typically as a modal notification.
type Notifier interface {
	NotifyError(err error)
}

// Warmer runs the work a warm close measures shutdown time after.
type Warmer interface {
	Warmup(ctx context.Context) error
}

// Invoker runs a function on the dispatch goroutine and waits for it.
type Invoker interface {
	InvokeAndWait(ctx context.Context, fn func()) error
}

// Terminator ends the process with the given status. It normally does not
// return.
type Terminator func(status int)

// Collaborators groups the external subsystems the sequencer drives. Every
// field is optional: a missing prompter means there is never unsaved data, a
// missing runtime approves at once, missing windows and persister are
// skipped, a missing invoker calls UI callbacks on the worker goroutine.
type Collaborators struct {
	Prompter  Prompter
	Runtime   Runtime
	Windows   Windows
	Persister Persister
	Endpoints []Endpoint
	Notifier  Notifier
	Warmer    Warmer
	UI        Invoker
}
