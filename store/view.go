package store

// reader is the tracked read API shared by View and Mutable. wrap gives
// nested nodes the flavor of the store they were read from.
type reader struct {
	n    *node
	wrap func(*node) any
}

func (r reader) out(v any) any {
	if c, ok := v.(*node); ok {
		return r.wrap(c)
	}
	return v
}

func (r reader) get(key string) any {
	if r.n.array {
		return nil
	}
	r.n.track(key)
	return r.out(r.n.fields[key])
}

func (r reader) at(i int) any {
	if !r.n.array {
		return nil
	}
	r.n.track(i)
	if i < 0 || i >= len(r.n.items) {
		return nil
	}
	return r.out(r.n.items[i])
}

func (r reader) len() int {
	if r.n.array {
		r.n.track(lengthKey{})
	} else {
		r.n.trackSelf()
	}
	return r.n.length()
}

func (r reader) keys() []string {
	r.n.trackSelf()
	if r.n.array {
		return nil
	}
	return append([]string(nil), r.n.keys...)
}

func (r reader) has(key string) bool {
	if r.n.array {
		return false
	}
	r.n.trackHas(key)
	_, ok := r.n.fields[key]
	return ok
}

func (r reader) items() []any {
	r.n.trackSelf()
	if !r.n.array {
		return nil
	}
	out := make([]any, len(r.n.items))
	for i, item := range r.n.items {
		out[i] = r.out(item)
	}
	return out
}

// View is the read only side of a store created with New. Nested maps and
// slices are returned as *View, the same one each time.
type View struct {
	n *node
}

func viewOf(n *node) *View {
	if n.view == nil {
		n.view = &View{n}
	}
	return n.view
}

func (v *View) reader() reader {
	return reader{v.n, func(n *node) any { return viewOf(n) }}
}

// IsArray reports whether v wraps a slice.
func (v *View) IsArray() bool { return v.n.array }

// Get reads key of an object, tracking it.
func (v *View) Get(key string) any { return v.reader().get(key) }

// At reads index i of an array, tracking it.
func (v *View) At(i int) any { return v.reader().at(i) }

// Len returns the length of an array or the number of keys of an object.
func (v *View) Len() int { return v.reader().len() }

// Keys returns the keys of an object in insertion order, tracking any
// change to the object.
func (v *View) Keys() []string { return v.reader().keys() }

// Has reports whether an object holds key, tracking only its existence.
func (v *View) Has(key string) bool { return v.reader().has(key) }

// Items returns the items of an array, tracking any change to it.
func (v *View) Items() []any { return v.reader().items() }

// Object returns the nested store under key, or nil when it is a leaf.
func (v *View) Object(key string) *View {
	c, _ := v.Get(key).(*View)
	return c
}

// Index returns the nested store at i, or nil when it is a leaf.
func (v *View) Index(i int) *View {
	c, _ := v.At(i).(*View)
	return c
}

// Snapshot copies the current state into plain maps and slices, untracked.
func (v *View) Snapshot() any { return snapshot(v.n) }

// Mutable is a store written in place. Writes are batched one by one; use
// Modify to batch several.
type Mutable struct {
	n *node
}

func mutableOf(n *node) *Mutable {
	if n.mutable == nil {
		n.mutable = &Mutable{n}
	}
	return n.mutable
}

// NewMutable wraps value, a map with string keys or a slice.
func NewMutable(value any) *Mutable {
	return mutableOf(mustWrap(value))
}

func (m *Mutable) reader() reader {
	return reader{m.n, func(n *node) any { return mutableOf(n) }}
}

func (m *Mutable) IsArray() bool       { return m.n.array }
func (m *Mutable) Get(key string) any  { return m.reader().get(key) }
func (m *Mutable) At(i int) any        { return m.reader().at(i) }
func (m *Mutable) Len() int            { return m.reader().len() }
func (m *Mutable) Keys() []string      { return m.reader().keys() }
func (m *Mutable) Has(key string) bool { return m.reader().has(key) }
func (m *Mutable) Items() []any        { return m.reader().items() }
func (m *Mutable) Snapshot() any       { return snapshot(m.n) }

func (m *Mutable) Object(key string) *Mutable {
	c, _ := m.Get(key).(*Mutable)
	return c
}

func (m *Mutable) Index(i int) *Mutable {
	c, _ := m.At(i).(*Mutable)
	return c
}

// Set writes key of an object.
func (m *Mutable) Set(key string, value any) {
	batch(func() { setProperty(m.n, key, wrapValue(value), false) })
}

// Delete removes key from an object.
func (m *Mutable) Delete(key string) {
	batch(func() { setProperty(m.n, key, nil, true) })
}

// SetAt writes index i of an array, growing it as needed.
func (m *Mutable) SetAt(i int, value any) {
	batch(func() { setProperty(m.n, i, wrapValue(value), false) })
}

// Push appends values to an array.
func (m *Mutable) Push(values ...any) {
	batch(func() {
		for _, v := range values {
			setProperty(m.n, len(m.n.items), wrapValue(v), false)
		}
	})
}

// SetLen truncates or grows an array.
func (m *Mutable) SetLen(n int) {
	batch(func() { setProperty(m.n, lengthKey{}, n, false) })
}

// Draft is the writable view given to Produce recipes. Its reads are not
// tracked and its writes go straight to the store.
type Draft struct {
	n *node
}

func draftOf(n *node) *Draft {
	if n.draft == nil {
		n.draft = &Draft{n}
	}
	return n.draft
}

func (d *Draft) out(v any) any {
	if c, ok := v.(*node); ok {
		return draftOf(c)
	}
	return v
}

func (d *Draft) Get(key string) any {
	v, _ := d.n.value(key)
	return d.out(v)
}

func (d *Draft) At(i int) any {
	v, _ := d.n.value(i)
	return d.out(v)
}

func (d *Draft) Len() int { return d.n.length() }

func (d *Draft) Object(key string) *Draft {
	c, _ := d.Get(key).(*Draft)
	return c
}

func (d *Draft) Index(i int) *Draft {
	c, _ := d.At(i).(*Draft)
	return c
}

func (d *Draft) Set(key string, value any) { setProperty(d.n, key, wrapValue(value), false) }

func (d *Draft) Delete(key string) { setProperty(d.n, key, nil, true) }

func (d *Draft) SetAt(i int, value any) { setProperty(d.n, i, wrapValue(value), false) }

func (d *Draft) Push(values ...any) {
	for _, v := range values {
		setProperty(d.n, len(d.n.items), wrapValue(v), false)
	}
}

func (d *Draft) SetLen(n int) { setProperty(d.n, lengthKey{}, n, false) }
