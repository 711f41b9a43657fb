// Package async runs slow calls behind a bounded wait.
package async

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned by Await when the call outlives its budget.
var ErrTimeout = errors.New("async: call timed out")

// Future is the pending result of a call started with Go.
type Future[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	val    T
	err    error
}

// Go starts fn on its own goroutine. fn receives a context that is cancelled
// when the caller stops waiting, so well-behaved calls release their
// resources; a call that ignores it still cannot block the caller.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	callCtx, cancel := context.WithCancel(ctx)
	f := &Future[T]{
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("async: call panicked: %v", r)
			}
		}()
		f.val, f.err = fn(callCtx)
	}()

	return f
}

// Await waits at most timeout for the result. On timeout or cancellation of
// ctx the call is abandoned and its eventual result discarded.
func (f *Future[T]) Await(ctx context.Context, timeout time.Duration) (T, error) {
	var zero T

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		f.cancel()
		return f.val, f.err
	case <-timer.C:
		f.cancel()
		return zero, ErrTimeout
	case <-ctx.Done():
		f.cancel()
		return zero, ctx.Err()
	}
}

// Run is Go followed by Await.
func Run[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	return Go(ctx, fn).Await(ctx, timeout)
}
