package modules

import (
	"context"
	"sync"
)

// Future is the result of an asynchronous computation.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{
		done: make(chan struct{}),
	}
}

// Get blocks until the computation completes or the context is cancelled.
func (m *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-m.done:
		return m.value, m.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done returns a channel that is closed when the computation completes.
func (m *Future[T]) Done() <-chan struct{} {
	return m.done
}

func (m *Future[T]) resolve(value T, err error) {
	m.once.Do(func() {
		m.value = value
		m.err = err
		close(m.done)
	})
}
