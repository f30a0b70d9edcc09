// Package throttler provides a tool for deciding whether a repeated event
// should be reported.
package throttler

import (
	"sync/atomic"
)

// Counter counts occurrences of a repeated event. The first limit
// occurrences are reported, after that only the ones whose ordinal number is
// a power of two.
type Counter struct {
	count atomic.Uint64
	limit uint64
}

// NewCounter creates a new Counter reporting the first limit occurrences.
func NewCounter(limit uint64) *Counter {
	return &Counter{limit: limit}
}

// Allow registers an occurrence and reports whether it should be reported
// along with its ordinal number.
func (m *Counter) Allow() (bool, uint64) {
	value := m.count.Add(1)
	return !Throttle(value, m.limit), value
}

// Reset starts counting from scratch.
func (m *Counter) Reset() {
	m.count.Store(0)
}

// Throttle returns true if the value-th occurrence should be throttled.
//
// If the value is less than or equal to the limit, it returns false.
// Otherwise only powers of two pass.
func Throttle(value, limit uint64) bool {
	if value <= limit {
		return false
	}
	return !isPowerOfTwo(value)
}

// isPowerOfTwo returns true if the value is a power of two.
func isPowerOfTwo(value uint64) bool {
	return value != 0 && (value&(value-1)) == 0
}
