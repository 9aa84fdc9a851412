package internal

import "slices"

// errorKey is the context key under which error handlers are stored.
type errorKey struct{}

type Owner struct {
	owner *Owner
	owned []*Owner

	// run in reverse order when the owner is disposed or rerun
	cleanups []func()

	// values set on this owner, looked up through the ownership chain
	context map[any]any

	// non nil when the owner is the ownership part of a computation
	comp *Computation
}

// NewOwner creates an owner that is disposed along with the current owner.
func (r *Runtime) NewOwner() *Owner {
	o := &Owner{}
	r.adopt(o)
	return o
}

// NewRoot creates an owner detached from the disposal of the current owner.
// It still inherits context and error handlers from it.
func (r *Runtime) NewRoot() *Owner {
	return &Owner{owner: r.owner}
}

func (r *Runtime) adopt(o *Owner) {
	o.owner = r.owner
	if r.owner != nil {
		r.owner.owned = append(r.owner.owned, o)
	}
}

func (o *Owner) Parent() *Owner {
	return o.owner
}

func (o *Owner) Computation() *Computation {
	return o.comp
}

// Owned returns how many children o currently owns.
func (o *Owner) Owned() int {
	return len(o.owned)
}

func (o *Owner) OnCleanup(fn func()) {
	o.cleanups = append(o.cleanups, fn)
}

// OnCleanup registers fn on the current owner. Without an owner it is a no-op.
func (t *Tracker) OnCleanup(fn func()) {
	if t.owner != nil {
		t.owner.OnCleanup(fn)
	}
}

// Dispose cleans o and its subtree, and detaches it from its parent.
func (r *Runtime) Dispose(o *Owner) {
	r.Untrack(func() { r.cleanNode(o) })

	if p := o.owner; p != nil {
		if i := slices.Index(p.owned, o); i >= 0 {
			p.owned = slices.Delete(p.owned, i, i+1)
		}
	}
}

// cleanNode drops the source edges of o, disposes its children last to first
// and runs its cleanups last to first.
func (r *Runtime) cleanNode(o *Owner) {
	if c := o.comp; c != nil {
		c.unlinkSources()
	}

	for i := len(o.owned) - 1; i >= 0; i-- {
		r.cleanNode(o.owned[i])
	}
	o.owned = nil

	for i := len(o.cleanups) - 1; i >= 0; i-- {
		o.cleanups[i]()
	}
	o.cleanups = nil

	if c := o.comp; c != nil {
		c.state = Clean
		c.errored = false
	}
}

// Lookup finds the nearest value stored under key in the ownership chain.
func (o *Owner) Lookup(key any) (any, bool) {
	for n := o; n != nil; n = n.owner {
		if v, ok := n.context[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Provide stores v under key on o.
func (o *Owner) Provide(key, v any) {
	if o.context == nil {
		o.context = make(map[any]any)
	}
	o.context[key] = v
}

func (o *Owner) OnError(fn func(error)) {
	handlers, _ := o.context[errorKey{}].([]func(error))
	o.Provide(errorKey{}, append(handlers, fn))
}

// handlerOwner returns the nearest owner with error handlers, or nil.
func (o *Owner) handlerOwner() *Owner {
	for n := o; n != nil; n = n.owner {
		if _, ok := n.context[errorKey{}]; ok {
			return n
		}
	}
	return nil
}

func (o *Owner) handlers() []func(error) {
	handlers, _ := o.context[errorKey{}].([]func(error))
	return handlers
}
