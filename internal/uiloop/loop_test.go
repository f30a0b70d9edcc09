package uiloop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	log "go.uber.org/zap"
)

// runLoop starts a loop on its own goroutine and returns a function that
// stops it and waits for Run to return.
func runLoop(t *testing.T) (*Loop, func()) {
	t.Helper()

	loop := New(log.NewNop())
	go func() {
		_ = loop.Run(context.Background())
	}()

	// Wait until the dispatch goroutine is known.
	require.NoError(t, loop.InvokeAndWait(context.Background(), func() {}))

	return loop, func() {
		loop.Stop()
		<-loop.Done()
	}
}

// TestLoop_InvokeAndWait verifies that invoked functions run on the dispatch
// goroutine and that the caller is blocked until they return.
func TestLoop_InvokeAndWait(t *testing.T) {
	loop, stop := runLoop(t)
	defer stop()

	assert.False(t, loop.IsDispatchGoroutine())

	onDispatch := false
	require.NoError(t, loop.InvokeAndWait(context.Background(), func() {
		onDispatch = loop.IsDispatchGoroutine()
	}))
	assert.True(t, onDispatch)
}

// TestLoop_PostAfterStop verifies that a stopped loop rejects events.
func TestLoop_PostAfterStop(t *testing.T) {
	loop, stop := runLoop(t)
	stop()

	assert.ErrorIs(t, loop.Post(func() {}), ErrStopped)
	assert.ErrorIs(t, loop.InvokeAndWait(context.Background(), func() {}), ErrStopped)
}

// TestLoop_RunTwice verifies that a loop cannot be run twice.
func TestLoop_RunTwice(t *testing.T) {
	loop, stop := runLoop(t)
	defer stop()

	assert.ErrorIs(t, loop.Run(context.Background()), ErrAlreadyRunning)
}

// TestLoop_SecondaryLoop verifies that events posted while the dispatch
// goroutine is blocked inside a secondary loop are still dispatched, and that
// closing the exit channel returns control to the blocked event.
func TestLoop_SecondaryLoop(t *testing.T) {
	loop, stop := runLoop(t)
	defer stop()

	exit := make(chan struct{})
	nestedRan := make(chan struct{})
	result := make(chan bool, 1)

	require.NoError(t, loop.Post(func() {
		result <- loop.EnterSecondaryLoop(exit)
	}))
	require.NoError(t, loop.Post(func() {
		// Dispatched by the secondary loop.
		assert.Equal(t, 1, loop.Depth())
		close(nestedRan)
		close(exit)
	}))

	select {
	case <-nestedRan:
	case <-time.After(time.Second):
		t.Fatal("event was not dispatched by the secondary loop")
	}

	select {
	case entered := <-result:
		assert.True(t, entered)
	case <-time.After(time.Second):
		t.Fatal("secondary loop did not exit")
	}
	assert.Equal(t, 0, loop.Depth())
}

// TestLoop_SecondaryLoopOffDispatch verifies that a secondary loop cannot be
// entered from another goroutine.
func TestLoop_SecondaryLoopOffDispatch(t *testing.T) {
	loop, stop := runLoop(t)
	defer stop()

	assert.False(t, loop.EnterSecondaryLoop(make(chan struct{})))
}

// TestLoop_EventPanic verifies that a panicking event does not stop the loop.
func TestLoop_EventPanic(t *testing.T) {
	loop, stop := runLoop(t)
	defer stop()

	require.NoError(t, loop.Post(func() {
		panic("boom")
	}))
	assert.NoError(t, loop.InvokeAndWait(context.Background(), func() {}))
}
