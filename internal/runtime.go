package internal

import (
	"log/slog"
	"time"

	"github.com/AnatoleLucet/sig/v2/scheduler"
)

// DefaultMaxUpdates bounds the pending update queue of a single flush.
const DefaultMaxUpdates = 1_000_000

// Host lets work that completes later re-enter the runtime on its own goroutine.
type Host interface {
	// Post runs fn on a future host tick.
	Post(fn func())
	// QueueMicrotask runs fn once the current synchronous work is done,
	// before the next tick.
	QueueMicrotask(fn func())
}

// FlushStats describes one outermost flush.
type FlushStats struct {
	Start        time.Time
	Duration     time.Duration
	Computations int
	Effects      int
}

// Observer receives runtime events. Implementations must not touch the graph.
type Observer interface {
	FlushFinished(stats FlushStats)
	ComputationFailed(err error, handled bool)
}

type Runtime struct {
	Tracker

	updates *Queue
	effects *Queue

	// incremented each time a flush starts, used to skip computations that
	// already ran in the current one
	execCount int

	// unhandled error kept while the rest of the queue drains
	failure error
	settled []func()

	depth   int
	started time.Time
	stats   FlushStats

	Logger     *slog.Logger
	MaxUpdates int
	Observer   Observer
	Host       Host
	Scheduler  *scheduler.Scheduler
}

func NewRuntime() *Runtime {
	return &Runtime{
		MaxUpdates: DefaultMaxUpdates,
	}
}

func (r *Runtime) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runtime) maxUpdates() int {
	if r.MaxUpdates > 0 {
		return r.MaxUpdates
	}
	return DefaultMaxUpdates
}

// Flushing reports whether an update queue is open.
func (r *Runtime) Flushing() bool {
	return r.updates != nil
}

// OnSettled queues fn to run once the current or next flush completes.
func (r *Runtime) OnSettled(fn func()) {
	r.settled = append(r.settled, fn)
}

func (r *Runtime) beginFlush() {
	if r.depth == 0 {
		r.started = time.Now()
		r.stats = FlushStats{}
	}
	r.depth++
}

func (r *Runtime) endFlush(done bool) {
	r.depth--
	if r.depth > 0 {
		return
	}

	if r.Observer != nil {
		stats := r.stats
		stats.Start = r.started
		stats.Duration = time.Since(r.started)
		r.Observer.FlushFinished(stats)
	}

	if !done || len(r.settled) == 0 {
		return
	}
	callbacks := r.settled
	r.settled = nil
	for _, cb := range callbacks {
		cb()
	}
}
