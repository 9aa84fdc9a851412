package internal

// Tracker holds what the running code is attached to.
type Tracker struct {
	// reads register a dependency on the listener
	listener *Computation
	// nodes created now are owned by owner
	owner *Owner
}

func (t *Tracker) Listener() *Computation { return t.listener }

func (t *Tracker) CurrentOwner() *Owner { return t.owner }

func (t *Tracker) track(s *Signal) {
	if t.listener != nil {
		link(t.listener, s)
	}
}

// Untrack runs fn without a listener.
func (t *Tracker) Untrack(fn func()) {
	if t.listener == nil {
		fn()
		return
	}

	prev := t.listener
	t.listener = nil
	defer func() { t.listener = prev }()

	fn()
}

// RunWithOwner runs fn owned by o, untracked, inside an update batch.
// Panics are routed to the error handlers above o.
func (r *Runtime) RunWithOwner(o *Owner, fn func()) {
	owner, listener := r.owner, r.listener
	r.owner, r.listener = o, nil
	defer func() { r.owner, r.listener = owner, listener }()

	defer func() {
		if p := recover(); p != nil {
			r.handleError(ToError(p), o)
		}
	}()

	r.runUpdates(fn, true)
}
