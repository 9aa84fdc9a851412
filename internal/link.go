package internal

// link records s as a source of c and c as an observer of s. Each side keeps
// the index of the edge on the other side so either can drop it in O(1).
func link(c *Computation, s *Signal) {
	slot := len(s.observers)

	c.sources = append(c.sources, s)
	c.sourceSlots = append(c.sourceSlots, slot)

	s.observers = append(s.observers, c)
	s.observerSlots = append(s.observerSlots, len(c.sources)-1)
}

// unlinkSources drops every source edge of c. The last observer of each
// source is swapped into the freed slot.
func (c *Computation) unlinkSources() {
	for len(c.sources) > 0 {
		last := len(c.sources) - 1
		source, index := c.sources[last], c.sourceSlots[last]
		c.sources[last] = nil
		c.sources, c.sourceSlots = c.sources[:last], c.sourceSlots[:last]

		top := len(source.observers) - 1
		if top < 0 {
			continue
		}

		n, slot := source.observers[top], source.observerSlots[top]
		source.observers[top] = nil
		source.observers = source.observers[:top]
		source.observerSlots = source.observerSlots[:top]

		if index < top {
			n.sourceSlots[slot] = index
			source.observers[index] = n
			source.observerSlots[index] = slot
		}
	}
}
