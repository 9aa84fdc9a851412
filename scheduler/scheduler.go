// Package scheduler runs low priority callbacks in time slices, handing
// control back to the host between slices.
package scheduler

import (
	"sort"
	"time"
)

// TaskFunc is the body of a task. didTimeout reports that the task expired
// before it could run, so it may take a cheaper path. Returning a non nil
// TaskFunc keeps the task queued with that continuation.
type TaskFunc func(didTimeout bool) TaskFunc

type Task struct {
	id             uint64
	fn             TaskFunc
	startTime      time.Time
	expirationTime time.Time
}

func (t *Task) ID() uint64 { return t.id }

func (t *Task) Expiration() time.Time { return t.expirationTime }

// Done reports whether the task ran to completion or was cancelled.
func (t *Task) Done() bool { return t.fn == nil }

// Scheduler is not safe for concurrent use. The host must call back on the
// goroutine that schedules tasks.
type Scheduler struct {
	host         Host
	inputPending func() bool
	now          func() time.Time
	observer     Observer

	yieldInterval    time.Duration
	maxYieldInterval time.Duration

	// sorted by expiration, ties in scheduling order
	queue  []*Task
	nextID uint64

	// a tick is posted or will be reposted
	running bool
	// set between scheduling a tick and it starting to work
	callbackScheduled bool
	performing        bool

	current   *Task
	tickStart time.Time
	deadline  time.Time
}

func New(host Host, opts ...Option) *Scheduler {
	s := &Scheduler{
		host:             host,
		now:              time.Now,
		yieldInterval:    DefaultYieldInterval,
		maxYieldInterval: DefaultMaxYieldInterval,
		nextID:           1,
	}
	if h, ok := host.(InputPendingHost); ok {
		s.inputPending = h.InputPending
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Schedule queues fn ordered by its expiration time.
func (s *Scheduler) Schedule(fn TaskFunc, opts ...TaskOption) *Task {
	cfg := taskConfig{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	start := s.now()
	t := &Task{
		id:             s.nextID,
		fn:             fn,
		startTime:      start,
		expirationTime: start.Add(cfg.timeout),
	}
	s.nextID++
	s.enqueue(t)

	if !s.callbackScheduled && !s.performing {
		s.callbackScheduled = true
		s.running = true
		s.host.Post(s.tick)
	}

	return t
}

// Cancel drops t. Its queue entry is removed when the loop reaches it.
func (s *Scheduler) Cancel(t *Task) {
	t.fn = nil
}

// Pending returns the number of queued entries, cancelled ones included.
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

func (s *Scheduler) enqueue(t *Task) {
	i := sort.Search(len(s.queue), func(i int) bool {
		return s.queue[i].expirationTime.After(t.expirationTime)
	})

	s.queue = append(s.queue, nil)
	copy(s.queue[i+1:], s.queue[i:])
	s.queue[i] = t
}

func (s *Scheduler) shift() {
	s.queue[0] = nil
	s.queue = s.queue[1:]
}

// tick is the host callback. A panicking task still leaves a tick posted so
// the rest of the queue runs.
func (s *Scheduler) tick() {
	if !s.running {
		return
	}

	now := s.now()
	s.tickStart = now
	s.deadline = now.Add(s.yieldInterval)

	defer func() {
		if p := recover(); p != nil {
			s.host.Post(s.tick)
			panic(p)
		}
	}()

	if s.flushWork(now) {
		s.host.Post(s.tick)
	} else {
		s.running = false
	}
}

func (s *Scheduler) flushWork(now time.Time) bool {
	s.callbackScheduled = false
	s.performing = true
	defer func() {
		s.current = nil
		s.performing = false
	}()

	return s.workLoop(now)
}

func (s *Scheduler) workLoop(now time.Time) bool {
	stats := SliceStats{Start: now}
	defer func() {
		if s.observer != nil {
			stats.Duration = s.now().Sub(stats.Start)
			stats.Pending = len(s.queue)
			s.observer.SliceFinished(stats)
		}
	}()

	s.current = s.head()
	for s.current != nil {
		t := s.current
		if t.expirationTime.After(now) && s.shouldYield() {
			stats.Yielded = true
			break
		}

		if fn := t.fn; fn != nil {
			t.fn = nil
			didTimeout := !t.expirationTime.After(now)
			if didTimeout {
				stats.TimedOut++
			}
			stats.Tasks++

			next := fn(didTimeout)
			now = s.now()

			if next != nil {
				t.fn = next
			} else if t == s.head() {
				s.shift()
			}
		} else {
			s.shift()
		}

		s.current = s.head()
	}

	return s.current != nil
}

func (s *Scheduler) head() *Task {
	if len(s.queue) == 0 {
		return nil
	}
	return s.queue[0]
}

// shouldYield prefers the host input signal once the slice is spent, and
// otherwise yields at the end of the slice.
func (s *Scheduler) shouldYield() bool {
	now := s.now()
	if now.Before(s.deadline) {
		return false
	}
	if s.inputPending == nil || s.inputPending() {
		return true
	}
	return !now.Before(s.tickStart.Add(s.maxYieldInterval))
}
