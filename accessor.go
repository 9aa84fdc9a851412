package sig

// Accessor reads a reactive value, tracking it.
type Accessor[T any] func() T

// Setter writes a signal.
type Setter[T any] func(T)

// NewSignalPair creates a signal and returns its read and write halves.
func NewSignalPair[T any](initial T, opts ...Option[T]) (Accessor[T], Setter[T]) {
	s := NewSignal(initial, opts...)
	return s.Read, s.Write
}

// Accessor returns the read half of s.
func (s *Signal[T]) Accessor() Accessor[T] { return s.Read }

// Accessor returns the read half of c.
func (c *Computed[T]) Accessor() Accessor[T] { return c.Read }

// On makes the dependencies of a computation explicit: only deps is tracked
// and fn runs untracked with the new input, the previous input and the
// previous result. With deferred, the first run only records the input.
//
//	total := NewMemo(On(count.Read, func(n, _ int, prev int) int { return prev + n }, false), 0)
func On[S, T any](deps func() S, fn func(input, prevInput S, prev T) T, deferred bool) func(prev T) T {
	var prevInput S
	first := true

	return func(prev T) T {
		input := deps()
		if first && deferred {
			first = false
			prevInput = input
			return prev
		}
		first = false

		result := Untrack(func() T { return fn(input, prevInput, prev) })
		prevInput = input
		return result
	}
}

// OnChange runs fn in a user effect each time deps changes.
func OnChange[S any](deps func() S, fn func(input, prevInput S), deferred bool) {
	run := On(deps, func(input, prevInput S, _ struct{}) struct{} {
		fn(input, prevInput)
		return struct{}{}
	}, deferred)

	NewEffect(func() { run(struct{}{}) })
}
