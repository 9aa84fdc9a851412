package internal

// Queue collects computations for one phase of a flush. It is iterated by
// index so entries appended while it drains are still processed.
type Queue struct {
	items []*Computation
}

func (q *Queue) push(c *Computation) {
	q.items = append(q.items, c)
}

func (r *Runtime) enqueue(c *Computation) {
	if c.pure {
		r.updates.push(c)
	} else {
		r.effects.push(c)
	}
}

// Batch runs fn and flushes everything it wrote once it returns.
func (r *Runtime) Batch(fn func()) {
	r.runUpdates(fn, false)
}

// runUpdates opens the update queues around fn, or joins the ones already
// open. init skips opening the pure queue, which roots use while they build.
func (r *Runtime) runUpdates(fn func(), init bool) {
	if r.updates != nil {
		fn()
		return
	}

	wait := r.effects != nil
	if !init {
		r.updates = &Queue{}
	}
	if !wait {
		r.effects = &Queue{}
	}
	r.execCount++

	done := false
	r.beginFlush()
	defer func() { r.endFlush(done) }()

	defer func() {
		if p := recover(); p != nil {
			if !wait {
				r.effects = nil
			}
			r.updates = nil
			r.handleError(ToError(p), r.owner)
			done = true
		}
	}()

	fn()
	r.completeUpdates(wait)
	done = true
}

func (r *Runtime) completeUpdates(wait bool) {
	if r.updates != nil {
		r.runQueue(r.updates)
		r.updates = nil
	}
	if wait {
		return
	}

	e := r.effects
	r.effects = nil
	if len(e.items) > 0 {
		r.runUpdates(func() { r.runEffects(e.items) }, false)
	}

	if err := r.failure; err != nil {
		r.failure = nil
		panic(err)
	}
}

func (r *Runtime) runQueue(q *Queue) {
	for i := 0; i < len(q.items); i++ {
		r.runIsolated(q.items[i])
	}
}

// runEffects runs render effects first, then user effects, each group in
// queue order.
func (r *Runtime) runEffects(queue []*Computation) {
	user := 0
	for i := 0; i < len(queue); i++ {
		e := queue[i]
		if !e.user {
			r.runIsolated(e)
		} else {
			queue[user] = e
			user++
		}
	}

	for i := 0; i < user; i++ {
		r.runIsolated(queue[i])
	}
}

// runIsolated keeps an unhandled error of one node from stopping its
// siblings. The first such error is raised once the flush is done.
func (r *Runtime) runIsolated(c *Computation) {
	defer func() {
		if p := recover(); p != nil {
			err := ToError(p)
			if isFatal(err) {
				panic(err)
			}
			if r.failure == nil {
				r.failure = err
			}
		}
	}()

	r.runTop(c)
}

// runTop reruns the stale ancestors of c top down before c itself, so that
// a parent disposing c runs first.
func (r *Runtime) runTop(c *Computation) {
	switch c.state {
	case Clean:
		return
	case Pending:
		r.lookUpstream(c, nil)
		return
	}

	ancestors := []*Computation{c}
	for o := c.owner; o != nil; o = o.owner {
		a := o.comp
		if a == nil {
			continue
		}
		if a.updatedAt != 0 && a.updatedAt >= r.execCount {
			break
		}
		if a.state != Clean {
			ancestors = append(ancestors, a)
		}
	}

	for i := len(ancestors) - 1; i >= 0; i-- {
		a := ancestors[i]
		switch a.state {
		case Stale:
			r.updateComputation(a)
		case Pending:
			r.detached(func() { r.lookUpstream(a, ancestors[0]) })
		}
	}
}

// lookUpstream settles the sources of a maybe stale computation. If one of
// them changes, the write marks c stale and queues it again.
func (r *Runtime) lookUpstream(c *Computation, ignore *Computation) {
	c.state = Clean

	for i := 0; i < len(c.sources); i++ {
		source := c.sources[i].comp
		if source == nil {
			continue
		}

		switch source.state {
		case Stale:
			if source != ignore && (source.updatedAt == 0 || source.updatedAt < r.execCount) {
				r.runTop(source)
			}
		case Pending:
			r.lookUpstream(source, ignore)
		}
	}
}

// detached runs fn in a flush of its own, shelving the open pure queue.
func (r *Runtime) detached(fn func()) {
	updates := r.updates
	r.updates = nil
	defer func() { r.updates = updates }()

	r.runUpdates(fn, false)
}
