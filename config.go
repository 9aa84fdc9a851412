package sig

import (
	"log/slog"

	"github.com/AnatoleLucet/sig/v2/internal"
	"github.com/AnatoleLucet/sig/v2/scheduler"
)

// Host lets asynchronous work re-enter the runtime on its goroutine.
// hostloop.Loop implements it.
type Host = internal.Host

// Observer receives flush and failure events from the runtime.
type Observer = internal.Observer

// FlushStats describes one outermost flush.
type FlushStats = internal.FlushStats

// DefaultMaxUpdates is the default bound on the updates queued by a single flush.
const DefaultMaxUpdates = internal.DefaultMaxUpdates

// ConfigOption configures the runtime of the calling goroutine.
type ConfigOption func(*internal.Runtime)

// Configure applies opts to the runtime of the calling goroutine.
func Configure(opts ...ConfigOption) {
	r := internal.GetRuntime()
	for _, opt := range opts {
		opt(r)
	}
}

// Release forgets the runtime of the calling goroutine. Nodes created on it
// must not be used afterwards.
func Release() {
	internal.ReleaseRuntime()
}

// WithLogger sets the logger used for runtime diagnostics. It defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) ConfigOption {
	return func(r *internal.Runtime) {
		r.Logger = logger
	}
}

// WithMaxUpdates bounds the updates a single flush may queue before it is
// considered an infinite loop.
func WithMaxUpdates(n int) ConfigOption {
	return func(r *internal.Runtime) {
		r.MaxUpdates = n
	}
}

func WithObserver(o Observer) ConfigOption {
	return func(r *internal.Runtime) {
		r.Observer = o
	}
}

// WithHost sets the host used by resources and futures created without one.
func WithHost(h Host) ConfigOption {
	return func(r *internal.Runtime) {
		r.Host = h
	}
}

// WithScheduler sets the scheduler driving deferred values.
func WithScheduler(s *scheduler.Scheduler) ConfigOption {
	return func(r *internal.Runtime) {
		r.Scheduler = s
	}
}
