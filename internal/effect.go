package internal

// NewEffect creates a user effect. Inside a flush it waits for the effect
// phase, otherwise it runs right away.
func (r *Runtime) NewEffect(fn func(prev any) any, init any) *Computation {
	c := r.NewComputation(fn, init, false, Stale)
	c.user = true

	if r.effects != nil {
		r.effects.push(c)
	} else {
		r.updateComputation(c)
	}

	return c
}

// NewRenderEffect creates an effect that runs right away and, on updates,
// before user effects.
func (r *Runtime) NewRenderEffect(fn func(prev any) any, init any) *Computation {
	c := r.NewComputation(fn, init, false, Stale)
	r.updateComputation(c)
	return c
}

// NewReaction separates tracking from reacting. The returned function runs
// its argument as the tracked body; the next change calls onInvalidate
// once, untracked, until tracking is armed again.
func (r *Runtime) NewReaction(onInvalidate func()) func(track func()) {
	var tracking func()

	c := r.NewComputation(func(any) any {
		if tracking != nil {
			tracking()
		} else {
			r.Untrack(onInvalidate)
		}
		tracking = nil
		return nil
	}, nil, false, Clean)
	c.user = true

	return func(track func()) {
		tracking = track
		r.updateComputation(c)
	}
}
