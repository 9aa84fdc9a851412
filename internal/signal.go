package internal

type Signal struct {
	value any

	observers     []*Computation
	observerSlots []int

	// nil means every write notifies
	equals func(a, b any) bool

	// set when the signal is the output of a memo
	comp *Computation
}

func (r *Runtime) NewSignal(initial any, equals func(a, b any) bool) *Signal {
	return &Signal{
		value:  initial,
		equals: equals,
	}
}

// Read the value, tracking the dependency when a listener is running.
func (s *Signal) Read() any {
	return GetRuntime().read(s)
}

// Value returns the current value without tracking or refreshing it.
func (s *Signal) Value() any {
	return s.value
}

func (s *Signal) Write(v any) {
	GetRuntime().write(s, v)
}

// Observers returns how many computations currently depend on s.
func (s *Signal) Observers() int {
	return len(s.observers)
}

func (r *Runtime) read(s *Signal) any {
	// a memo read before the flush reached it refreshes itself first
	if c := s.comp; c != nil && c.state != Clean {
		if c.state == Stale {
			r.updateComputation(c)
		} else {
			r.detached(func() { r.lookUpstream(c, nil) })
		}
	}

	r.track(s)
	return s.value
}

func (r *Runtime) write(s *Signal, v any) {
	if s.equals != nil && s.equals(s.value, v) {
		return
	}

	s.value = v
	if len(s.observers) == 0 {
		return
	}

	r.runUpdates(func() {
		for i := 0; i < len(s.observers); i++ {
			o := s.observers[i]
			if o.state == Clean || o.errored {
				o.errored = false
				r.enqueue(o)
				if o.signal != nil {
					r.markDownstream(o.signal)
				}
			}
			o.state = Stale
		}

		if n := len(r.updates.items); n > r.maxUpdates() {
			r.updates = &Queue{}
			r.logger().Error("sig: update queue overflow", "pending", n, "limit", r.maxUpdates())
			panic(ErrInfiniteUpdateLoop)
		}
	}, false)
}

// markDownstream flags the transitive observers of s as maybe stale.
func (r *Runtime) markDownstream(s *Signal) {
	for i := 0; i < len(s.observers); i++ {
		o := s.observers[i]
		if o.state == Clean || o.errored {
			// a failed computation has nothing valid to keep, rerun it
			if o.errored {
				o.errored = false
				o.state = Stale
			} else {
				o.state = Pending
			}
			r.enqueue(o)
			if o.signal != nil {
				r.markDownstream(o.signal)
			}
		}
	}
}
