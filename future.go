package sig

import (
	"context"
	"sync"

	"github.com/AnatoleLucet/sig/v2/internal"
)

// Future is a value that settles once, possibly on another goroutine. Its
// callbacks always run on its host, so they may touch the graph.
type Future[T any] struct {
	host Host

	mu        sync.Mutex
	settled   bool
	value     T
	err       error
	callbacks []func(T, error)
}

// Resolved returns a future already settled with v.
func Resolved[T any](v T) *Future[T] {
	return &Future[T]{settled: true, value: v}
}

// Rejected returns a future already settled with err.
func Rejected[T any](err error) *Future[T] {
	return &Future[T]{settled: true, err: err}
}

// NewFuture returns a pending future and the functions settling it. Only the
// first call to either of them counts; both are safe from any goroutine.
// A nil host falls back to the one configured with WithHost, and it panics
// with ErrNoHost when there is none.
func NewFuture[T any](host Host) (f *Future[T], resolve func(T), reject func(error)) {
	if host == nil {
		host = internal.GetRuntime().Host
	}
	if host == nil {
		panic(ErrNoHost)
	}

	f = &Future[T]{host: host}
	resolve = func(v T) { f.settle(v, nil) }
	reject = func(err error) {
		var zero T
		f.settle(zero, err)
	}
	return f, resolve, reject
}

// Go runs fn on a new goroutine and settles the returned future with its
// result. A panic in fn rejects the future.
func Go[T any](ctx context.Context, host Host, fn func(ctx context.Context) (T, error)) *Future[T] {
	f, resolve, reject := NewFuture[T](host)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				reject(internal.ToError(p))
			}
		}()

		v, err := fn(ctx)
		if err != nil {
			reject(err)
			return
		}
		resolve(v)
	}()

	return f
}

func (f *Future[T]) settle(v T, err error) {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	f.settled = true
	f.value, f.err = v, err
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	for _, cb := range callbacks {
		f.host.Post(func() { cb(v, err) })
	}
}

// Then calls fn with the result once the future settles. On a pending
// future, fn is posted to the host.
func (f *Future[T]) Then(fn func(v T, err error)) {
	f.mu.Lock()
	if !f.settled {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	v, err := f.value, f.err
	f.mu.Unlock()

	if f.host != nil {
		f.host.Post(func() { fn(v, err) })
		return
	}
	fn(v, err)
}

// Settled reports whether the future has a result.
func (f *Future[T]) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}

// Result returns the result of a settled future. settled is false while it
// is pending.
func (f *Future[T]) Result() (v T, settled bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.settled, f.err
}
