package promise

import (
	"context"
	"sync"
)

type settled[T any] struct {
	value T
	err   error
}

// Handle is the deferred result of a join and its continuation
type Handle[T any] struct {
	done chan struct{}
	once sync.Once
	res  settled[T]
}

func newHandle[T any]() *Handle[T] {
	return &Handle[T]{done: make(chan struct{})}
}

func (h *Handle[T]) resolve(res settled[T]) {
	h.once.Do(func() {
		h.res = res
		close(h.done)
	})
}

// Done is closed once the continuation has returned
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the continuation has returned or ctx is done. Giving up on
// ctx does not cancel the underlying work.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.res.value, h.res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
