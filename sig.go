// Package sig is a fine-grained reactive runtime: signals, computed values
// and effects kept glitch free by a synchronous two phase flush.
//
// Every goroutine gets its own runtime. Nodes are not safe for concurrent
// use; work finishing on other goroutines re-enters through a Host.
package sig

import "github.com/AnatoleLucet/sig/v2/internal"

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}

type Signal[T any] struct {
	signal *internal.Signal
}

// NewSignal creates your typical read/write signal.
// Writes equal to the current value (== by default) are ignored.
func NewSignal[T any](initial T, opts ...Option[T]) *Signal[T] {
	cfg := applyOptions(opts)

	return &Signal[T]{
		internal.GetRuntime().NewSignal(initial, cfg.comparator()),
	}
}

// Read the current value of the signal, tracking the dependency if within a reactive context.
func (s *Signal[T]) Read() T {
	return as[T](s.signal.Read())
}

// Peek reads the current value without tracking it.
func (s *Signal[T]) Peek() T {
	return as[T](s.signal.Value())
}

// Write a new value to the signal, triggering updates to any dependents.
func (s *Signal[T]) Write(v T) {
	s.signal.Write(v)
}

// Update writes the result of fn applied to the current value.
func (s *Signal[T]) Update(fn func(T) T) {
	s.Write(fn(s.Peek()))
}

type Computed[T any] struct {
	node *internal.Computation
}

// NewComputed creates a computed signal that derives its value from other signals (its a memo).
// It runs right away, then again only when a flush finds one of its sources changed.
func NewComputed[T any](compute func() T, opts ...Option[T]) *Computed[T] {
	return NewMemo(func(T) T { return compute() }, *new(T), opts...)
}

// NewMemo is NewComputed with access to the previous value.
func NewMemo[T any](compute func(prev T) T, initial T, opts ...Option[T]) *Computed[T] {
	cfg := applyOptions(opts)

	return &Computed[T]{
		internal.GetRuntime().NewMemo(func(prev any) any {
			return compute(as[T](prev))
		}, initial, cfg.comparator()),
	}
}

// Read the current value of the computed signal, tracking the dependency if within a reactive context.
func (c *Computed[T]) Read() T {
	return as[T](c.node.Signal().Read())
}

// Peek reads the last computed value without tracking or refreshing it.
func (c *Computed[T]) Peek() T {
	return as[T](c.node.Value())
}

// NewBatch batches multiple signal writes into a single update cycle,
// instead of triggering updates after each write.
func NewBatch(fn func()) {
	internal.GetRuntime().Batch(fn)
}

// NewEffect creates a reactive effect that runs the given function
// whenever its dependencies change. Effects run after every computed value
// of the flush has settled, and after render effects.
func NewEffect(fn func()) {
	internal.GetRuntime().NewEffect(func(any) any {
		fn()
		return nil
	}, nil)
}

// NewRenderEffect creates an effect that runs immediately, and before user
// effects on updates. Renderers use it to write to the output tree.
func NewRenderEffect(fn func()) {
	internal.GetRuntime().NewRenderEffect(func(any) any {
		fn()
		return nil
	}, nil)
}

// NewComputation runs fn immediately and again, in the pure phase of a
// flush, when its dependencies change. Use it to write derived signals.
func NewComputation(fn func()) {
	internal.GetRuntime().NewComputed(func(any) any {
		fn()
		return nil
	}, nil)
}

// NewReaction separates tracking from reacting: the returned function runs
// its argument tracked, and the first change after that calls onInvalidate.
func NewReaction(onInvalidate func()) func(track func()) {
	return internal.GetRuntime().NewReaction(onInvalidate)
}

// Untrack runs the given function without tracking any reactive dependencies.
func Untrack[T any](fn func() T) T {
	var result T
	internal.GetRuntime().Untrack(func() { result = fn() })
	return result
}

// OnCleanup registers a function to be called when the current owner is disposed or rerun.
// Cleanups run in reverse registration order.
func OnCleanup(fn func()) {
	internal.GetRuntime().OnCleanup(fn)
}

// OnMount runs fn once, untracked, with the user effects of the current flush.
func OnMount(fn func()) {
	NewEffect(func() {
		internal.GetRuntime().Untrack(fn)
	})
}

// OnSettled runs fn once the current flush, or the next one, has completed,
// including the flushes started by its effects.
func OnSettled(fn func()) {
	internal.GetRuntime().OnSettled(fn)
}

// OnError registers an error handler on the current owner. Panics raised
// by computations below it are delivered to the handler instead of
// propagating.
func OnError(fn func(error)) {
	if o := internal.GetRuntime().CurrentOwner(); o != nil {
		o.OnError(fn)
	}
}

// CatchError runs fn under an owner whose errors go to handler.
func CatchError[T any](fn func() T, handler func(error)) T {
	r := internal.GetRuntime()

	o := r.NewOwner()
	o.OnError(handler)

	var result T
	r.RunWithOwner(o, func() { result = fn() })
	return result
}
