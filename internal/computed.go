package internal

type State uint8

const (
	Clean State = iota
	// Stale computations read a changed source and must rerun.
	Stale
	// Pending computations sit downstream of a stale memo and must check
	// their sources before deciding.
	Pending
)

// Computation is a memo, an effect or any other unit of reactive work.
type Computation struct {
	Owner

	fn func(prev any) any

	// last result, unused by memos which keep it on signal
	value any
	// output of memos
	signal *Signal

	state   State
	errored bool
	pure    bool
	user    bool

	ran       bool
	updatedAt int

	sources     []*Signal
	sourceSlots []int
}

// NewComputation creates a computation owned by the current owner. It does
// not run it.
func (r *Runtime) NewComputation(fn func(prev any) any, init any, pure bool, state State) *Computation {
	c := &Computation{
		fn:    fn,
		value: init,
		pure:  pure,
		state: state,
	}
	c.comp = c
	r.adopt(&c.Owner)

	return c
}

// NewMemo creates an eager, equality gated computation and runs it.
func (r *Runtime) NewMemo(fn func(prev any) any, init any, equals func(a, b any) bool) *Computation {
	c := r.NewComputation(fn, init, true, Clean)
	c.signal = &Signal{
		value:  init,
		equals: equals,
		comp:   c,
	}

	r.updateComputation(c)
	return c
}

// NewComputed creates a value-less pure computation that runs right away and
// in the pure phase of later flushes.
func (r *Runtime) NewComputed(fn func(prev any) any, init any) *Computation {
	c := r.NewComputation(fn, init, true, Stale)
	r.updateComputation(c)
	return c
}

// Signal returns the output of a memo.
func (c *Computation) Signal() *Signal {
	return c.signal
}

// Value returns the last result without tracking.
func (c *Computation) Value() any {
	return c.current()
}

func (c *Computation) State() State {
	return c.state
}

// Sources returns how many edges c holds to the signals it last read.
func (c *Computation) Sources() int {
	return len(c.sources)
}

func (c *Computation) current() any {
	if c.signal != nil {
		return c.signal.value
	}
	return c.value
}

// Update reruns c right away.
func (r *Runtime) Update(c *Computation) {
	r.updateComputation(c)
}

// Invalidate marks c stale and queues it for the open flush, or a new one.
func (r *Runtime) Invalidate(c *Computation) {
	r.runUpdates(func() {
		c.state = Stale
		r.enqueue(c)
	}, false)
}

func (r *Runtime) updateComputation(c *Computation) {
	if c.fn == nil {
		return
	}

	r.cleanNode(&c.Owner)
	r.runComputation(c, c.current(), r.execCount)
}

func (r *Runtime) runComputation(c *Computation, prev any, time int) {
	next, err := r.call(c, prev)
	if err != nil {
		if c.pure {
			for i := len(c.owned) - 1; i >= 0; i-- {
				r.cleanNode(c.owned[i])
			}
			c.owned = nil
		}
		c.state = Stale
		c.errored = true
		c.updatedAt = time + 1
		c.ran = true

		handled := c.Owner.handlerOwner() != nil
		if r.Observer != nil {
			r.Observer.ComputationFailed(err, handled)
		}
		r.handleError(err, &c.Owner)
		return
	}

	if c.pure {
		r.stats.Computations++
	} else {
		r.stats.Effects++
	}

	if c.updatedAt == 0 || c.updatedAt <= time {
		if c.ran && c.signal != nil {
			r.write(c.signal, next)
		} else if c.signal != nil {
			c.signal.value = next
		} else {
			c.value = next
		}
		c.updatedAt = time
		c.ran = true
	}
}

// call runs the body of c as both owner and listener, turning a panic into
// an error.
func (r *Runtime) call(c *Computation, prev any) (next any, err error) {
	owner, listener := r.owner, r.listener
	r.owner, r.listener = &c.Owner, c

	defer func() {
		r.owner, r.listener = owner, listener
		if p := recover(); p != nil {
			err = ToError(p)
		}
	}()

	return c.fn(prev), nil
}
