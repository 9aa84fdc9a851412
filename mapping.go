package sig

import (
	"slices"

	"github.com/AnatoleLucet/sig/v2/internal"
)

type mapOptions[U any] struct {
	fallback func() U
}

type MapOption[U any] func(*mapOptions[U])

// WithFallback maps an empty list to a single fallback entry.
func WithFallback[U any](fn func() U) MapOption[U] {
	return func(o *mapOptions[U]) {
		o.fallback = fn
	}
}

func applyMapOptions[U any](opts []MapOption[U]) mapOptions[U] {
	var cfg mapOptions[U]
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// mapped holds the entries of a mapped list side by side.
type mapped[U any] struct {
	values    []U
	disposers []func()
	indexes   []*Signal[int]
}

func makeMapped[U any](n int) mapped[U] {
	return mapped[U]{
		values:    make([]U, n),
		disposers: make([]func(), n),
		indexes:   make([]*Signal[int], n),
	}
}

func (m *mapped[U]) dispose() {
	for _, d := range m.disposers {
		if d != nil {
			d()
		}
	}
	*m = mapped[U]{}
}

// newEntry maps one entry under a root of its own.
func newEntry[U any](fn func(index *Signal[int]) U, i int) (U, func(), *Signal[int]) {
	var dispose func()
	var index *Signal[int]

	v := NewRoot(func(d func()) U {
		dispose = d
		index = NewSignal(i)
		return fn(index)
	})

	return v, dispose, index
}

// MapArray maps a reactive list keyed by item: each distinct item is mapped
// once, under its own owner, and keeps its mapped value while it stays in the
// list. Items leaving the list have their owner disposed. The index accessor
// follows the item as it moves.
//
// The returned function is meant to be read from a computed value.
func MapArray[T comparable, U any](list func() []T, fn func(item T, index Accessor[int]) U, opts ...MapOption[U]) func() []U {
	cfg := applyMapOptions(opts)

	var items []T
	var current mapped[U]
	fallback := false

	OnCleanup(func() { current.dispose() })

	return func() []U {
		newItems := list()

		return Untrack(func() []U {
			if fallback {
				current.dispose()
				fallback = false
			}

			newLen := len(newItems)
			switch {
			case newLen == 0:
				current.dispose()
				items = nil

				if cfg.fallback != nil {
					v, d, _ := newEntry(func(*Signal[int]) U { return cfg.fallback() }, 0)
					current = mapped[U]{values: []U{v}, disposers: []func(){d}, indexes: []*Signal[int]{nil}}
					fallback = true
				}

			case len(items) == 0:
				current = makeMapped[U](newLen)
				for j, item := range newItems {
					current.values[j], current.disposers[j], current.indexes[j] = newEntry(func(index *Signal[int]) U {
						return fn(item, index.Read)
					}, j)
				}

			default:
				current = diffMapped(items, newItems, current, func(item T, j int) (U, func(), *Signal[int]) {
					return newEntry(func(index *Signal[int]) U { return fn(item, index.Read) }, j)
				})
			}

			items = slices.Clone(newItems)
			return slices.Clone(current.values)
		})
	}
}

// diffMapped moves the entries of prev to the positions of their items in
// next, disposing the ones whose item is gone and creating the missing ones.
func diffMapped[T comparable, U any](items, next []T, prev mapped[U], create func(T, int) (U, func(), *Signal[int])) mapped[U] {
	newLen := len(next)
	temp := makeMapped[U](newLen)
	kept := make([]bool, newLen)

	// common prefix
	start := 0
	for end := min(len(items), newLen); start < end && items[start] == next[start]; start++ {
	}

	// common suffix
	end, newEnd := len(items)-1, newLen-1
	for ; end >= start && newEnd >= start && items[end] == next[newEnd]; end, newEnd = end-1, newEnd-1 {
		temp.values[newEnd] = prev.values[end]
		temp.disposers[newEnd] = prev.disposers[end]
		temp.indexes[newEnd] = prev.indexes[end]
		kept[newEnd] = true
	}

	// chain the positions of repeated items so duplicates are matched in order
	positions := make(map[T]int, newEnd-start+1)
	chain := make([]int, newEnd+1)
	for j := newEnd; j >= start; j-- {
		item := next[j]
		if i, ok := positions[item]; ok {
			chain[j] = i
		} else {
			chain[j] = -1
		}
		positions[item] = j
	}

	for i := start; i <= end; i++ {
		item := items[i]
		if j, ok := positions[item]; ok && j != -1 {
			temp.values[j] = prev.values[i]
			temp.disposers[j] = prev.disposers[i]
			temp.indexes[j] = prev.indexes[i]
			kept[j] = true
			positions[item] = chain[j]
		} else {
			prev.disposers[i]()
		}
	}

	result := makeMapped[U](newLen)
	copy(result.values, prev.values[:start])
	copy(result.disposers, prev.disposers[:start])
	copy(result.indexes, prev.indexes[:start])

	for j := start; j < newLen; j++ {
		if kept[j] {
			result.values[j] = temp.values[j]
			result.disposers[j] = temp.disposers[j]
			result.indexes[j] = temp.indexes[j]
			result.indexes[j].Write(j)
		} else {
			result.values[j], result.disposers[j], result.indexes[j] = create(next[j], j)
		}
	}

	return result
}

// IndexArray maps a reactive list keyed by position: each index is mapped
// once, and the item accessor changes when the item at that index does.
// Trailing entries are disposed when the list shrinks.
func IndexArray[T, U any](list func() []T, fn func(item Accessor[T], index int) U, opts ...MapOption[U]) func() []U {
	cfg := applyMapOptions(opts)

	var (
		items     []T
		values    []U
		disposers []func()
		signals   []*Signal[T]
		fallback  bool
	)

	disposeAll := func() {
		for _, d := range disposers {
			d()
		}
		items, values, disposers, signals = nil, nil, nil, nil
	}

	OnCleanup(disposeAll)

	return func() []U {
		newItems := list()

		return Untrack(func() []U {
			if len(newItems) == 0 {
				disposeAll()
				fallback = false

				if cfg.fallback != nil {
					v, d, _ := newEntry(func(*Signal[int]) U { return cfg.fallback() }, 0)
					values, disposers = []U{v}, []func(){d}
					fallback = true
				}
				return slices.Clone(values)
			}

			if fallback {
				disposeAll()
				fallback = false
			}

			i := 0
			for ; i < len(newItems); i++ {
				item := newItems[i]
				if i < len(items) {
					if !internal.Equal(items[i], item) {
						signals[i].Write(item)
					}
					continue
				}

				var s *Signal[T]
				var d func()
				v := NewRoot(func(dispose func()) U {
					d = dispose
					s = NewSignal(item)
					return fn(s.Read, i)
				})
				values = append(values, v)
				disposers = append(disposers, d)
				signals = append(signals, s)
			}
			for j := i; j < len(items); j++ {
				disposers[j]()
			}

			n := len(newItems)
			values, disposers, signals = values[:n], disposers[:n], signals[:n]
			items = slices.Clone(newItems)
			return slices.Clone(values)
		})
	}
}
