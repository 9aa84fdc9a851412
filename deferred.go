package sig

import (
	"github.com/AnatoleLucet/sig/v2/internal"
	"github.com/AnatoleLucet/sig/v2/scheduler"
)

// NewDeferred returns a value that follows source with a delay: updates are
// applied by a task on the runtime scheduler, when the host is idle or once
// the timeout has passed. It panics with ErrNoScheduler without a
// scheduler, see WithScheduler.
func NewDeferred[T any](source func() T, opts ...Option[T]) Accessor[T] {
	r := internal.GetRuntime()
	s := r.Scheduler
	if s == nil {
		panic(ErrNoScheduler)
	}

	cfg := applyOptions(opts)
	var taskOpts []scheduler.TaskOption
	if cfg.deadline {
		taskOpts = append(taskOpts, scheduler.WithTimeout(cfg.timeout))
	}

	var (
		task     *scheduler.Task
		deferred *Signal[T]
		node     *internal.Computation
	)

	node = r.NewComputation(func(any) any {
		if task == nil || task.Done() {
			task = s.Schedule(func(bool) scheduler.TaskFunc {
				deferred.Write(as[T](node.Value()))
				return nil
			}, taskOpts...)
		}
		return source()
	}, nil, true, internal.Stale)
	r.Update(node)

	deferred = NewSignal(as[T](node.Value()), opts...)

	r.OnCleanup(func() {
		if task != nil {
			s.Cancel(task)
		}
	})

	return deferred.Read
}
