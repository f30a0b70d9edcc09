package workerpool

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	log "go.uber.org/zap"
)

// runSerial starts the worker and returns a function that stops it and waits
// for the runner to finish.
func runSerial(t *testing.T) (*Serial, func()) {
	t.Helper()

	serial := NewSerial(log.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go serial.Run(ctx)

	return serial, func() {
		cancel()
		<-serial.Done()
	}
}

// TestSerial_Order verifies that workers are executed in submission order,
// including workers submitted by a running worker.
func TestSerial_Order(t *testing.T) {
	serial, stop := runSerial(t)
	defer stop()

	var mu sync.Mutex
	var order []int
	record := func(i int) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, i)
	}

	done := make(chan struct{})
	require.NoError(t, serial.Add(WorkerFunc(func(ctx context.Context) {
		record(1)
		// Chained submission must not block the running worker.
		assert.NoError(t, serial.Add(WorkerFunc(func(ctx context.Context) {
			record(3)
			close(done)
		})))
	})))
	require.NoError(t, serial.Add(WorkerFunc(func(ctx context.Context) {
		record(2)
	})))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("workers were not executed")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, order)
}

// TestSerial_WorkerGoroutine verifies that the worker goroutine is recognized
// only from inside a running worker.
func TestSerial_WorkerGoroutine(t *testing.T) {
	serial, stop := runSerial(t)
	defer stop()

	assert.False(t, serial.IsWorkerGoroutine())

	inside := make(chan bool)
	require.NoError(t, serial.Add(WorkerFunc(func(ctx context.Context) {
		inside <- serial.IsWorkerGoroutine()
	})))
	assert.True(t, <-inside)
}

// TestSerial_Panic verifies that a panicking worker does not stop the runner.
func TestSerial_Panic(t *testing.T) {
	serial, stop := runSerial(t)
	defer stop()

	require.NoError(t, serial.Add(WorkerFunc(func(ctx context.Context) {
		panic("boom")
	})))

	done := make(chan struct{})
	require.NoError(t, serial.Add(WorkerFunc(func(ctx context.Context) {
		close(done)
	})))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner stopped after a panic")
	}
}

// TestSerial_Close verifies that a closed worker rejects new workers and that
// Run drains the queue before returning.
func TestSerial_Close(t *testing.T) {
	serial := NewSerial(log.NewNop())

	executed := 0
	require.NoError(t, serial.Add(WorkerFunc(func(ctx context.Context) {
		executed++
	})))
	serial.Close()
	assert.ErrorIs(t, serial.Add(WorkerFunc(func(ctx context.Context) {})), ErrClosed)

	serial.Run(context.Background())
	assert.Equal(t, 1, executed)
}
