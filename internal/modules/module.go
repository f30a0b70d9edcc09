// Package modules implements the module runtime: a registry of modules that
// are torn down together when the application exits.
package modules

import (
	"context"
)

// Module is a unit of the application with resources to release on exit.
type Module interface {
	// Name identifies the module in logs.
	Name() string
	// CanClose reports whether the module agrees to be closed. Returning
	// false vetoes the shutdown of the whole application. The module must
	// answer false once ctx is done.
	CanClose(ctx context.Context) bool
	// Close releases the module resources.
	Close(ctx context.Context) error
}

// Func is a Module assembled from functions. Nil functions agree to close
// and have nothing to release.
type Func struct {
	ModuleName string
	Veto       func(ctx context.Context) bool
	Closer     func(ctx context.Context) error
}

// Name implements Module.
func (m Func) Name() string {
	return m.ModuleName
}

// CanClose implements Module.
func (m Func) CanClose(ctx context.Context) bool {
	if m.Veto == nil {
		return ctx.Err() == nil
	}
	return m.Veto(ctx)
}

// Close implements Module.
func (m Func) Close(ctx context.Context) error {
	if m.Closer == nil {
		return nil
	}
	return m.Closer(ctx)
}
