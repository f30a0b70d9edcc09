// Package traceid provides identifiers that tie log records to a shutdown
// attempt or to a request received by the command endpoint.
package traceid

import (
	"context"

	"github.com/google/uuid"
)

// ID is a unique identifier.
type ID string

// HeaderKey is the HTTP header carrying the request ID.
const HeaderKey = "X-Request-ID"

// contextKey is an unexported type for context keys defined in this package.
// This prevents collisions with keys defined in other packages.
type contextKey int

// idContextKey is the key for [ID] in Contexts. It is unexported; clients use
// traceid.NewContext and traceid.FromContext instead of using this key
// directly.
var idContextKey contextKey

// Generate generates a new ID.
func Generate() ID {
	return ID(uuid.New().String())
}

// String implements fmt.Stringer.
func (m ID) String() string {
	return string(m)
}

// FromContext returns the ID value stored in ctx, if any.
func FromContext(ctx context.Context) (ID, bool) {
	id, exists := ctx.Value(idContextKey).(ID)
	return id, exists
}

// NewContext returns a new Context that carries id.
func NewContext(ctx context.Context, id ID) context.Context {
	return context.WithValue(ctx, idContextKey, id)
}
