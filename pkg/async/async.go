package async

import (
	"context"
	"errors"
	"fmt"
)

// Future is the eventual result of a function started by Run.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Await blocks until the function returns.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// Done is closed once the result is available.
func (f *Future[U]) Done() <-chan struct{} { return f.done }

// IsComplete reports whether the function has returned, without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Run calls fn(ctx, param) in a new goroutine. A panic in fn is recovered
// and reported as the Future's error.
func Run[T, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.result, f.err = call(ctx, param, fn)
	}()
	return f
}

func call[T, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) (res U, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn(ctx, param)
}

// Settle waits for every future and returns all results in order along
// with the joined errors of the ones that failed.
func Settle[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))
	var errs []error
	for i, f := range futures {
		res, err := f.Await()
		results[i] = res
		if err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}

// Map applies fn to every item with at most limit calls in flight. A limit
// below one means unbounded. Results keep the order of items.
func Map[T, U any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (U, error)) ([]U, error) {
	if limit < 1 || limit > len(items) {
		limit = len(items)
	}
	sem := make(chan struct{}, max(limit, 1))
	futures := make([]*Future[U], len(items))

	for i, item := range items {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			futures[i] = resolved[U](ctx.Err())
			continue
		}
		futures[i] = Run(ctx, item, func(ctx context.Context, t T) (U, error) {
			defer func() { <-sem }()
			return fn(ctx, t)
		})
	}
	return Settle(futures...)
}

func resolved[U any](err error) *Future[U] {
	f := &Future[U]{err: err, done: make(chan struct{})}
	close(f.done)
	return f
}
