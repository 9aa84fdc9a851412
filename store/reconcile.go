package store

import "reflect"

// ReconcileOptions configures Reconcile.
type ReconcileOptions struct {
	// Key identifies array items across versions. It defaults to "id";
	// set NoKey to match items by identity only.
	Key string
	// Merge patches array items in place by position instead of replacing
	// those that do not match.
	Merge bool
	NoKey bool
}

// Reconcile returns an updater that patches the current state into value
// with the fewest writes: matching array items keep their identity, moved
// ones are moved, objects are patched key by key and keys missing from
// value are deleted. Readers of unchanged parts are not notified.
//
//	set("todos", store.Reconcile(fetched, store.ReconcileOptions{}))
func Reconcile(value any, opts ReconcileOptions) func(prev any) any {
	key := opts.Key
	if key == "" {
		key = "id"
	}
	if opts.NoKey {
		key = ""
	}

	target := wrapValue(value)

	return func(prev any) any {
		tn, ok := target.(*node)
		if !ok || !isStore(prev) {
			return target
		}
		pn := wrapValue(prev).(*node)
		if pn == tn || pn.array != tn.array {
			return target
		}

		r := reconciler{merge: opts.Merge, key: key}
		r.applyNode(tn, pn)
		return prev
	}
}

type reconciler struct {
	merge bool
	key   string
}

// keyOf is the value items are matched on. Leaves have no key once a key
// field is in use.
func (r reconciler) keyOf(item any) any {
	if r.key == "" {
		return hashable(item)
	}
	n, ok := item.(*node)
	if !ok || n.array {
		return nil
	}
	return hashable(n.fields[r.key])
}

func (r reconciler) matches(a, b any) bool {
	if same(a, b) {
		return true
	}
	if r.key == "" || a == nil || b == nil {
		return false
	}
	an, aok := a.(*node)
	bn, bok := b.(*node)
	if !aok || !bok || an.array || bn.array {
		return false
	}
	return same(an.fields[r.key], bn.fields[r.key])
}

type pointerKey struct {
	t reflect.Type
	p uintptr
}

// hashable makes v usable as a map key: slices, maps and funcs by identity.
func hashable(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Func:
		return pointerKey{rv.Type(), rv.Pointer()}
	}
	if !rv.Type().Comparable() {
		return pointerKey{rv.Type(), 0}
	}
	return v
}

// applyState patches parent[key] into target, or replaces it when the two
// cannot be patched into one another.
func (r reconciler) applyState(target any, parent *node, key any) {
	previous, _ := parent.value(key)
	if same(target, previous) {
		return
	}

	tn, tok := target.(*node)
	pn, pok := previous.(*node)
	if !tok || !pok || tn.array != pn.array || (r.key != "" && !tn.array && !same(tn.fields[r.key], pn.fields[r.key])) {
		setProperty(parent, key, target, false)
		return
	}

	r.applyNode(tn, pn)
}

func (r reconciler) applyNode(target, previous *node) {
	if target.array {
		r.applyArray(target, previous)
		return
	}

	for _, k := range target.keys {
		r.applyState(target.fields[k], previous, k)
	}
	for _, k := range append([]string(nil), previous.keys...) {
		if _, ok := target.fields[k]; !ok {
			setProperty(previous, k, nil, true)
		}
	}
}

func (r reconciler) applyArray(target, previous *node) {
	next, prev := target.items, previous.items

	keyed := len(next) > 0 && len(prev) > 0 &&
		(!r.merge || (r.key != "" && r.keyOf(next[0]) != nil))
	if !keyed {
		for i := range next {
			r.applyState(next[i], previous, i)
		}
		if len(previous.items) > len(next) {
			setProperty(previous, lengthKey{}, len(next), false)
		}
		return
	}

	// matching prefix is patched in place
	start := 0
	for end := min(len(prev), len(next)); start < end && r.matches(previous.items[start], next[start]); start++ {
		r.applyState(next[start], previous, start)
	}

	temp := make([]any, len(next))
	filled := make([]bool, len(next))

	end, newEnd := len(prev)-1, len(next)-1
	for ; end >= start && newEnd >= start && r.matches(prev[end], next[newEnd]); end, newEnd = end-1, newEnd-1 {
		temp[newEnd] = prev[end]
		filled[newEnd] = true
	}

	if start > newEnd || start > end {
		j := start
		for ; j <= newEnd; j++ {
			setProperty(previous, j, next[j], false)
		}
		for ; j < len(next); j++ {
			setProperty(previous, j, temp[j], false)
			r.applyState(next[j], previous, j)
		}
		if len(previous.items) > len(next) {
			setProperty(previous, lengthKey{}, len(next), false)
		}
		return
	}

	positions := map[any]int{}
	chain := make([]int, newEnd+1)
	for j := newEnd; j >= start; j-- {
		k := r.keyOf(next[j])
		if i, ok := positions[k]; ok {
			chain[j] = i
		} else {
			chain[j] = -1
		}
		positions[k] = j
	}

	for i := start; i <= end; i++ {
		k := r.keyOf(prev[i])
		if j, ok := positions[k]; ok && j != -1 {
			temp[j] = prev[i]
			filled[j] = true
			positions[k] = chain[j]
		}
	}

	for j := start; j < len(next); j++ {
		if filled[j] {
			setProperty(previous, j, temp[j], false)
			r.applyState(next[j], previous, j)
		} else {
			setProperty(previous, j, next[j], false)
		}
	}

	if len(previous.items) > len(next) {
		setProperty(previous, lengthKey{}, len(next), false)
	}
}

// Produce returns an updater running recipe on a draft of the current
// state. The draft writes straight to the store, notifying as it goes.
//
//	set("todos", store.Produce(func(d *store.Draft) { d.Index(0).Set("done", true) }))
func Produce(recipe func(d *Draft)) func(prev any) any {
	return func(prev any) any {
		if isStore(prev) {
			n := wrapValue(prev).(*node)
			recipe(draftOf(n))
		}
		return prev
	}
}

func isStore(v any) bool {
	switch v.(type) {
	case *View, *Mutable, *Draft, *node:
		return true
	}
	return false
}
