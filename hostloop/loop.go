// Package hostloop is a single goroutine event loop that provides the host
// primitives the reactive runtime and the task scheduler need: posting to a
// future tick and queueing microtasks.
package hostloop

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/AnatoleLucet/sig/v2/scheduler"
)

var (
	// ErrLoopRunning is returned when Run is called on a loop that is already running.
	ErrLoopRunning = errors.New("hostloop: loop is already running")

	// ErrLoopClosed is returned when work is submitted to a closed loop.
	ErrLoopClosed = errors.New("hostloop: loop is closed")
)

// Loop runs macrotasks in order on the goroutine that calls Run or
// RunUntilIdle, draining microtasks after each of them.
//
// Post and Do are safe from any goroutine. QueueMicrotask must be called
// from the loop itself.
type Loop struct {
	mu      sync.Mutex
	tasks   []func()
	closed  bool
	running bool

	wake chan struct{}
	done chan struct{}

	// loop goroutine only
	microtasks []func()

	logger  *slog.Logger
	onPanic func(v any)
}

type Option func(*Loop)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithPanicHandler replaces the default handling of panicking tasks, which
// logs them.
func WithPanicHandler(fn func(v any)) Option {
	return func(l *Loop) {
		l.onPanic = fn
	}
}

func New(opts ...Option) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post queues fn for a future tick. Work posted after Close is dropped.
func (l *Loop) Post(fn func()) {
	if err := l.submit(fn); err != nil {
		l.logger.Debug("hostloop: dropped task", "error", err)
	}
}

// QueueMicrotask runs fn after the current task, before the next one.
func (l *Loop) QueueMicrotask(fn func()) {
	l.microtasks = append(l.microtasks, fn)
}

// Do runs fn on the loop and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	err := l.submit(func() {
		defer close(ran)
		fn()
	})
	if err != nil {
		return err
	}

	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) submit(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.tasks) == 0 {
		return nil, false
	}
	fn := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	return fn, true
}

// Pending returns the number of queued macrotasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Run processes tasks until ctx is done or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.enter(); err != nil {
		return err
	}
	defer l.leave()

	for {
		l.drainMicrotasks()

		if fn, ok := l.next(); ok {
			l.execute(fn)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case <-l.wake:
		}
	}
}

// RunUntilIdle processes tasks until none are queued and returns how many
// macrotasks ran. Tasks posted while it runs are processed too.
func (l *Loop) RunUntilIdle() (int, error) {
	if err := l.enter(); err != nil {
		return 0, err
	}
	defer l.leave()

	n := 0
	l.drainMicrotasks()
	for {
		fn, ok := l.next()
		if !ok {
			return n, nil
		}
		l.execute(fn)
		l.drainMicrotasks()
		n++
	}
}

// Close stops Run and rejects further work. Queued tasks are dropped.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	l.tasks = nil
	close(l.done)
}

func (l *Loop) enter() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return ErrLoopRunning
	}
	l.running = true
	return nil
}

func (l *Loop) leave() {
	l.mu.Lock()
	l.running = false
	l.mu.Unlock()
}

func (l *Loop) drainMicrotasks() {
	for len(l.microtasks) > 0 {
		fn := l.microtasks[0]
		l.microtasks[0] = nil
		l.microtasks = l.microtasks[1:]
		l.execute(fn)
	}
}

// execute isolates a panicking task from the rest of the loop.
func (l *Loop) execute(fn func()) {
	defer func() {
		if p := recover(); p != nil {
			if l.onPanic != nil {
				l.onPanic(p)
				return
			}
			l.logger.Error("hostloop: task panicked", "panic", p)
		}
	}()

	fn()
}

// InputHost is a Loop that reports pending user input to the scheduler.
type InputHost struct {
	*Loop
	pending func() bool
}

var _ scheduler.InputPendingHost = InputHost{}

// WithInput pairs the loop with a pending input probe.
func (l *Loop) WithInput(pending func() bool) InputHost {
	return InputHost{Loop: l, pending: pending}
}

func (h InputHost) InputPending() bool {
	return h.pending()
}
