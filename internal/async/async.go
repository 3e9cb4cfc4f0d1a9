// Package async provides single-value sources that a caller can await.
//
// A Source hides how its value is produced: already materialized (Just),
// computed lazily on first await (Single), or computed concurrently and
// collected later (Go).
package async

import (
	"context"
	"sync"
)

// Source yields exactly one value or an error.
type Source[T any] interface {
	// Await blocks until the value is available or ctx is done.
	Await(ctx context.Context) (T, error)
}

type just[T any] struct {
	v T
}

// Just wraps a value that is already available. Await never blocks.
func Just[T any](v T) Source[T] {
	return just[T]{v: v}
}

func (j just[T]) Await(context.Context) (T, error) {
	return j.v, nil
}

type single[T any] struct {
	once sync.Once
	fn   func(context.Context) (T, error)
	v    T
	err  error
}

// Single wraps a producer that runs on the first Await. Its outcome is
// memoized, so later awaits return the same value without re-running it.
func Single[T any](fn func(context.Context) (T, error)) Source[T] {
	return &single[T]{fn: fn}
}

func (s *single[T]) Await(ctx context.Context) (T, error) {
	s.once.Do(func() {
		s.v, s.err = s.fn(ctx)
		s.fn = nil
	})
	return s.v, s.err
}

// Future is a value being computed on its own goroutine.
type Future[T any] struct {
	done chan struct{}
	v    T
	err  error
}

// Go starts fn immediately on a new goroutine and returns its Future.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.v, f.err = fn()
	}()
	return f
}

// Await waits for the computation to finish. If ctx ends first the
// computation keeps running but its result is dropped for this caller.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.v, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
