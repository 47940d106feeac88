// Package future provides a small future/promise primitive for fetch results
// that may already be available or may complete later.
//
// A Future is an explicit pending/ready/error state machine. It is resolved by
// whatever execution context the producing backend uses: a goroutine, an I/O
// completion callback, or immediately at construction. Callers must not assume
// blocking versus non-blocking behavior from the type alone. A caller that
// discards a future before completion simply never observes its result;
// in-flight work is not cancelled.
package future

import (
	"context"
	"sync"
)

// Future is a handle to a value of type T that resolves exactly once, to
// either a value or an error.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	resolved  bool
	val       T
	err       error
	callbacks []func(T, error)
}

// Promise is the producing side of a Future.
type Promise[T any] struct {
	f *Future[T]
}

// NewPromise creates a pending future and its resolver.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{f: &Future[T]{done: make(chan struct{})}}
}

// Future returns the consumer handle.
func (p *Promise[T]) Future() *Future[T] {
	return p.f
}

// Resolve completes the future with a value. Completing an already-resolved
// future is a no-op, so trigger-style harnesses may fire more than once.
func (p *Promise[T]) Resolve(v T) {
	p.f.complete(v, nil)
}

// Reject completes the future with an error.
func (p *Promise[T]) Reject(err error) {
	var zero T
	p.f.complete(zero, err)
}

func (f *Future[T]) complete(v T, err error) {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		return
	}
	f.resolved = true
	f.val = v
	f.err = err
	cbs := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	// Continuations run on the resolver's goroutine.
	for _, cb := range cbs {
		cb(v, err)
	}
}

// onResolve registers cb to run when the future resolves, or runs it inline if
// it already has.
func (f *Future[T]) onResolve(cb func(T, error)) {
	f.mu.Lock()
	if !f.resolved {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	cb(f.val, f.err)
}

// Of returns an already-resolved future.
func Of[T any](v T) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), resolved: true, val: v}
	close(f.done)
	return f
}

// Err returns an already-failed future.
func Err[T any](err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), resolved: true, err: err}
	close(f.done)
	return f
}

// Call computes fn synchronously and wraps the outcome. This is the fallback
// for backends with no native asynchronous fetch path.
func Call[T any](fn func() (T, error)) *Future[T] {
	v, err := fn()
	if err != nil {
		return Err[T](err)
	}
	return Of(v)
}

// Go runs fn on its own goroutine and resolves the future with its outcome.
func Go[T any](fn func() (T, error)) *Future[T] {
	p := NewPromise[T]()
	go func() {
		v, err := fn()
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(v)
	}()
	return p.Future()
}

// Ready reports whether the future has resolved.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the future resolves.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Get waits for resolution or context cancellation. Cancellation abandons the
// wait only; it does not stop the producer.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then derives a future by transforming f's value once it resolves. An error
// from f is forwarded unchanged, without invoking fn. The transformation runs
// in the context that resolves f, or inline if f already resolved.
func Then[A, B any](f *Future[A], fn func(A) (B, error)) *Future[B] {
	p := NewPromise[B]()
	f.onResolve(func(v A, err error) {
		if err != nil {
			p.Reject(err)
			return
		}
		b, err := fn(v)
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(b)
	})
	return p.Future()
}

// ThenFuture derives a future by chaining into a second asynchronous stage.
func ThenFuture[A, B any](f *Future[A], fn func(A) *Future[B]) *Future[B] {
	p := NewPromise[B]()
	f.onResolve(func(v A, err error) {
		if err != nil {
			p.Reject(err)
			return
		}
		fn(v).onResolve(func(b B, err error) {
			if err != nil {
				p.Reject(err)
				return
			}
			p.Resolve(b)
		})
	})
	return p.Future()
}
