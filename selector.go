package sig

import (
	"slices"

	"github.com/AnatoleLucet/sig/v2/internal"
)

// NewSelector returns a function reporting whether a key is the current
// value of source. Each caller only reruns when its own answer changes,
// instead of every caller rerunning on every change.
//
//	isSelected := NewSelector(selectedID.Read)
//	NewEffect(func() { row.active = isSelected(row.id) })
func NewSelector[K comparable](source func() K) func(key K) bool {
	return NewSelectorFunc(source, func(key, value K) bool { return key == value })
}

// NewSelectorFunc is NewSelector with a custom match between a key and the
// value of source.
func NewSelectorFunc[K comparable, V any](source func() V, match func(key K, value V) bool) func(key K) bool {
	r := internal.GetRuntime()

	var keys []K
	subs := map[K][]*internal.Computation{}

	ran := false
	node := r.NewComputed(func(prev any) any {
		v := source()
		if ran {
			p := as[V](prev)
			for _, key := range keys {
				if match(key, v) == match(key, p) {
					continue
				}
				for _, c := range subs[key] {
					r.Invalidate(c)
				}
			}
		}
		ran = true
		return v
	}, nil)

	return func(key K) bool {
		if listener := r.Listener(); listener != nil {
			if _, ok := subs[key]; !ok {
				keys = append(keys, key)
			}
			subs[key] = append(subs[key], listener)

			r.OnCleanup(func() {
				l := subs[key]
				if i := slices.Index(l, listener); i >= 0 {
					l = slices.Delete(l, i, i+1)
				}
				if len(l) > 0 {
					subs[key] = l
					return
				}
				delete(subs, key)
				if i := slices.Index(keys, key); i >= 0 {
					keys = slices.Delete(keys, i, i+1)
				}
			})
		}

		return match(key, as[V](node.Value()))
	}
}
