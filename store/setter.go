package store

import "github.com/AnatoleLucet/sig/v2/internal"

// Range selects the indices From to To inclusive, every By, of an array.
// A negative To means the last index, a zero By means 1. The zero Range
// selects index 0 only.
type Range struct {
	From, To, By int
}

// Setter updates a store created with New. Its arguments are a path
// followed by a value:
//
//	set("user", "name", "ada")               // a key
//	set("todos", 0, "done", true)            // an index
//	set("todos", []any{0, 2}, "done", true)  // several keys or indices
//	set("todos", func(item any, i int) bool { ... }, "done", true)
//	set("todos", store.Range{From: 1, To: -1, By: 2}, "done", true)
//	set("count", func(prev any) any { return prev.(int) + 1 })
//	set(map[string]any{"a": 1})              // shallow merge at the root
//
// A map value is shallow merged into an existing object, other values
// replace. Setting Deleted removes a key. All writes of a call are batched.
type Setter func(path ...any)

// New creates a store over value, a map with string keys or a slice, and
// returns its read only view and its setter. The view of a nil value is an
// empty object.
func New(value any) (*View, Setter) {
	root := mustWrap(value)

	set := func(path ...any) {
		if len(path) == 0 {
			return
		}
		batch(func() {
			if root.array && len(path) == 1 {
				updateArray(root, path[0])
				return
			}
			updatePath(root, path)
		})
	}

	return viewOf(root), set
}

// Modify applies an updater, such as the ones returned by Reconcile and
// Produce, to a mutable store in a single batch.
func Modify(m *Mutable, modifier func(prev any) any) {
	batch(func() { modifier(m) })
}

// Unwrap returns a plain copy of a store or of a value read from one.
func Unwrap(v any) any {
	return snapshot(wrapValue(v))
}

// exposed is what updaters and filters see of a stored value.
func exposed(v any) any {
	if n, ok := v.(*node); ok {
		return viewOf(n)
	}
	return v
}

func updateArray(current *node, next any) {
	if fn, ok := next.(func(prev any) any); ok {
		next = fn(viewOf(current))
	}

	n, ok := wrapValue(next).(*node)
	if !ok {
		panic(ErrInvalidPath)
	}
	if n == current {
		return
	}
	if !n.array {
		mergeNode(current, n)
		return
	}

	for i, item := range n.items {
		if i >= len(current.items) || !same(current.items[i], item) {
			setProperty(current, i, item, false)
		}
	}
	setProperty(current, lengthKey{}, len(n.items), false)
}

func updatePath(current *node, path []any) {
	var (
		part    any
		hasPart bool
		prev    any = current
	)

	if len(path) > 1 {
		part, path = path[0], path[1:]

		switch p := part.(type) {
		case []any:
			for _, k := range p {
				updatePath(current, prepend(k, path))
			}
			return
		case func(item any, index int) bool:
			if !current.array {
				panic(ErrInvalidPath)
			}
			for i := 0; i < len(current.items); i++ {
				if p(exposed(current.items[i]), i) {
					updatePath(current, prepend(i, path))
				}
			}
			return
		case Range:
			if !current.array {
				panic(ErrInvalidPath)
			}
			to, by := p.To, p.By
			if to < 0 {
				to = len(current.items) - 1
			}
			if by <= 0 {
				by = 1
			}
			for i := p.From; i <= to; i += by {
				updatePath(current, prepend(i, path))
			}
			return
		}

		if len(path) > 1 {
			updatePath(current.child(part), path)
			return
		}

		if !current.validKey(part) {
			panic(ErrInvalidPath)
		}
		prev, _ = current.value(part)
		hasPart = true
	}

	value := path[0]
	if fn, ok := value.(func(prev any) any); ok {
		p := exposed(prev)
		value = fn(p)
		if internal.Equal(value, p) {
			return
		}
	}
	if !hasPart && value == nil {
		return
	}

	value = wrapValue(value)
	pn, prevIsNode := prev.(*node)
	vn, valueIsNode := value.(*node)

	if !hasPart {
		if !valueIsNode {
			panic(ErrInvalidPath)
		}
		mergeNode(current, vn)
		return
	}
	if prevIsNode && valueIsNode && !vn.array && pn != vn {
		mergeNode(pn, vn)
		return
	}
	setProperty(current, part, value, false)
}

func prepend(part any, path []any) []any {
	return append([]any{part}, path...)
}
