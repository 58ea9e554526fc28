package cache

import "context"

// flight is one fetch that readers without a value can wait on.
// It is settled exactly once.
type flight[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func newFlight[T any]() *flight[T] {
	return &flight[T]{done: make(chan struct{})}
}

func (f *flight[T]) settle(val T, err error) {
	f.val, f.err = val, err
	close(f.done)
}

func (f *flight[T]) wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
