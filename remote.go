package tiercache

import (
	"context"
	"time"
)

// await runs fn as its own task bounded by timeout and waits for it, or for
// ctx. It returns context errors untouched; remoteErr classifies them.
// fn keeps running after a timeout until the provider notices its context.
func await[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(opCtx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-opCtx.Done():
		// prefer a result that raced the deadline
		select {
		case r := <-done:
			return r.v, r.err
		default:
		}
		return zero, opCtx.Err()
	}
}
