package scheduler

import "time"

const (
	// DefaultYieldInterval is the time slice given to tasks per host tick.
	DefaultYieldInterval = 5 * time.Millisecond
	// DefaultMaxYieldInterval caps a tick when the host reports input.
	DefaultMaxYieldInterval = 300 * time.Millisecond
	// DefaultTimeout is the expiration of tasks scheduled without one.
	DefaultTimeout = 1073741823 * time.Millisecond
)

// SliceStats describes one host tick of the work loop.
type SliceStats struct {
	Start    time.Time
	Duration time.Duration
	Tasks    int
	TimedOut int
	// Pending is the queue length when the slice ended.
	Pending int
	Yielded bool
}

// Observer receives work loop events.
type Observer interface {
	SliceFinished(stats SliceStats)
}

type Option func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

func WithYieldInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		s.yieldInterval = d
	}
}

func WithMaxYieldInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		s.maxYieldInterval = d
	}
}

func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		s.observer = o
	}
}

type taskConfig struct {
	timeout time.Duration
}

type TaskOption func(*taskConfig)

// WithTimeout sets how long a task may wait before it runs as timed out.
// Zero makes it expired from the start.
func WithTimeout(d time.Duration) TaskOption {
	return func(c *taskConfig) {
		c.timeout = d
	}
}
