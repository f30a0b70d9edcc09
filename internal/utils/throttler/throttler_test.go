package throttler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestThrottle verifies that values up to the limit pass and that beyond it
// only powers of two do.
func TestThrottle(t *testing.T) {
	var passed []uint64
	for value := uint64(1); value <= 40; value++ {
		if !Throttle(value, 3) {
			passed = append(passed, value)
		}
	}
	assert.Equal(t, []uint64{1, 2, 3, 4, 8, 16, 32}, passed)
}

// TestCounter verifies that the counter reports occurrences the same way and
// starts over after a reset.
func TestCounter(t *testing.T) {
	counter := NewCounter(1)

	var reported []uint64
	for range 8 {
		if allowed, n := counter.Allow(); allowed {
			reported = append(reported, n)
		}
	}
	assert.Equal(t, []uint64{1, 2, 4, 8}, reported)

	counter.Reset()
	allowed, n := counter.Allow()
	assert.True(t, allowed)
	assert.EqualValues(t, 1, n)
}
