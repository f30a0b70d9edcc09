package lifecycle

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLatch_Release verifies that only the first release takes effect and
// that its result is the one observed by the waiters.
func TestLatch_Release(t *testing.T) {
	latch := newLatch()
	assert.False(t, latch.Released())
	assert.Equal(t, OutcomeInProgress, latch.Result().Outcome)

	require.True(t, latch.Release(Result{Outcome: OutcomeAborted, Status: 5}))
	assert.False(t, latch.Release(Result{Outcome: OutcomeApproved}))

	assert.True(t, latch.Released())
	assert.Equal(t, Result{Outcome: OutcomeAborted, Status: 5}, latch.Result())
}

// TestLatch_Await verifies that a bounded wait times out on a pending latch
// and returns at once on a released one.
func TestLatch_Await(t *testing.T) {
	latch := newLatch()
	assert.False(t, latch.Await(10*time.Millisecond))

	go latch.Release(Result{Outcome: OutcomeDenied})
	assert.True(t, latch.Await(time.Second))

	latch.Wait()
	<-latch.Done()
}

// TestLatch_Register verifies that the registered wake function is called on
// release, and at once when the latch is already released.
func TestLatch_Register(t *testing.T) {
	t.Run("BeforeRelease", func(t *testing.T) {
		latch := newLatch()
		var woken atomic.Int32
		unregister := latch.register(func() { woken.Add(1) })
		assert.Zero(t, woken.Load())

		latch.Release(Result{})
		assert.EqualValues(t, 1, woken.Load())
		unregister()
	})

	t.Run("AfterRelease", func(t *testing.T) {
		latch := newLatch()
		latch.Release(Result{})

		var woken atomic.Int32
		latch.register(func() { woken.Add(1) })()
		assert.EqualValues(t, 1, woken.Load())
	})

	t.Run("Unregistered", func(t *testing.T) {
		latch := newLatch()
		var woken atomic.Int32
		latch.register(func() { woken.Add(1) })()

		latch.Release(Result{})
		assert.Zero(t, woken.Load())
	})
}

// TestLatchManager verifies that the manager hands out a single latch until
// the owner forgets it, and that an unreleased latch stays current.
func TestLatchManager(t *testing.T) {
	manager := NewLatchManager()
	assert.Nil(t, manager.Current())

	latch, inFlight := manager.TryAcquire()
	require.False(t, inFlight)

	joined, inFlight := manager.TryAcquire()
	require.True(t, inFlight)
	assert.Same(t, latch, joined)

	manager.Forget(latch)
	assert.Same(t, latch, manager.Current())

	latch.Release(Result{Outcome: OutcomeDenied})
	assert.Eventually(t, func() bool {
		return manager.Current() == nil
	}, time.Second, time.Millisecond)

	next, inFlight := manager.TryAcquire()
	require.False(t, inFlight)
	assert.NotSame(t, latch, next)

	// A stale latch must not clear the current one.
	manager.Forget(latch)
	assert.Same(t, next, manager.Current())
}
