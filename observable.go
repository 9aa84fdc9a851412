package sig

import "github.com/AnatoleLucet/sig/v2/internal"

// Observe calls fn with every value of input, starting with the current one,
// until the returned function is called or the current owner is disposed.
func Observe[T any](input func() T, fn func(T)) (unsubscribe func()) {
	dispose := NewRoot(func(dispose func()) func() {
		NewEffect(func() {
			v := input()
			internal.GetRuntime().Untrack(func() { fn(v) })
		})
		return dispose
	})

	if GetOwner() != nil {
		OnCleanup(dispose)
	}
	return dispose
}

// Subscribe observes the signal, see Observe.
func (s *Signal[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	return Observe(s.Read, fn)
}

// Subscribe observes the computed value, see Observe.
func (c *Computed[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	return Observe(c.Read, fn)
}

// From turns a push based producer into an accessor. The producer receives
// the setter and returns a function stopping it, called when the current
// owner is disposed. Every value is propagated, equal or not.
func From[T any](producer func(set func(T)) (stop func()), initial T) Accessor[T] {
	s := NewSignal(initial, AlwaysNotify[T]())

	if stop := producer(s.Write); stop != nil {
		OnCleanup(stop)
	}
	return s.Read
}

// FromChan is From for a channel. Values are received on a separate
// goroutine and written on host, which must run on the goroutine owning the
// graph. Without a host it falls back to the configured one. Receiving stops
// when ch is closed or the current owner is disposed.
func FromChan[T any](ch <-chan T, host Host, initial T) Accessor[T] {
	if host == nil {
		host = internal.GetRuntime().Host
	}
	if host == nil {
		panic(ErrNoHost)
	}

	return From(func(set func(T)) func() {
		done := make(chan struct{})

		go func() {
			for {
				select {
				case <-done:
					return
				case v, ok := <-ch:
					if !ok {
						return
					}
					host.Post(func() {
						select {
						case <-done:
						default:
							set(v)
						}
					})
				}
			}
		}()

		return func() { close(done) }
	}, initial)
}
