// Package store makes nested maps and slices finely observable: every key
// read inside a computation is tracked on its own, so a write only reruns
// the computations that read what changed.
//
// New and NewMutable copy the plain maps and slices they are given into
// store nodes. Later changes to those Go values are not seen by the store,
// and creating two stores from the same map gives two independent stores.
// Identity is stable within a store: reading the same nested node twice
// returns the same *View or *Mutable, across writes and reconciles.
package store

import (
	"errors"
	"reflect"
	"slices"
	"sort"

	"github.com/AnatoleLucet/sig/v2/internal"
)

var (
	// ErrInvalidPath is panicked when a path segment does not fit the value
	// it is applied to.
	ErrInvalidPath = errors.New("store: invalid path")

	// ErrNotWrappable is panicked when a store is created from a value that
	// is neither a map with string keys nor a slice.
	ErrNotWrappable = errors.New("store: value is not a map or a slice")
)

type deleted struct{}

// Deleted removes a key when it is set as a value.
var Deleted any = deleted{}

// lengthKey tracks the length of arrays.
type lengthKey struct{}

// node is a wrapped map or slice. Values are leaves or *node.
type node struct {
	array bool

	// objects, keys in insertion order
	keys   []string
	fields map[string]any

	// arrays
	items []any

	// per key tracking, created on first tracked read
	nodes map[any]*internal.Signal
	has   map[string]*internal.Signal
	self  *internal.Signal

	// wrappers, cached so that wrapping twice returns the same value
	view    *View
	mutable *Mutable
	draft   *Draft
}

func newObject() *node {
	return &node{fields: map[string]any{}}
}

func newArray(n int) *node {
	return &node{array: true, items: make([]any, 0, n)}
}

// wrapValue turns maps with string keys and slices into nodes, recursively.
// Wrappers are unwrapped to their node, other values are returned as is.
func wrapValue(v any) any {
	switch v := v.(type) {
	case nil:
		return nil
	case *node:
		return v
	case *View:
		return v.n
	case *Mutable:
		return v.n
	case *Draft:
		return v.n
	case map[string]any:
		n := newObject()
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			n.keys = append(n.keys, k)
			n.fields[k] = wrapValue(v[k])
		}
		return n
	case []any:
		n := newArray(len(v))
		for _, item := range v {
			n.items = append(n.items, wrapValue(item))
		}
		return n
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		n := newObject()
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			n.keys = append(n.keys, k.String())
			n.fields[k.String()] = wrapValue(rv.MapIndex(k).Interface())
		}
		return n
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		n := newArray(rv.Len())
		for i := range rv.Len() {
			n.items = append(n.items, wrapValue(rv.Index(i).Interface()))
		}
		return n
	}

	return v
}

func mustWrap(v any) *node {
	if v == nil {
		return newObject()
	}
	n, ok := wrapValue(v).(*node)
	if !ok {
		panic(ErrNotWrappable)
	}
	return n
}

// snapshot copies n into plain maps and slices.
func snapshot(v any) any {
	n, ok := v.(*node)
	if !ok {
		return v
	}

	if n.array {
		out := make([]any, len(n.items))
		for i, item := range n.items {
			out[i] = snapshot(item)
		}
		return out
	}

	out := make(map[string]any, len(n.keys))
	for _, k := range n.keys {
		out[k] = snapshot(n.fields[k])
	}
	return out
}

// same is the identity check of setProperty: nodes by pointer, leaves with
// the runtime equality.
func same(a, b any) bool {
	an, aok := a.(*node)
	bn, bok := b.(*node)
	if aok || bok {
		return aok && bok && an == bn
	}
	return internal.Equal(a, b)
}

func (n *node) value(key any) (any, bool) {
	switch k := key.(type) {
	case string:
		if n.array {
			return nil, false
		}
		v, ok := n.fields[k]
		return v, ok
	case int:
		if !n.array || k < 0 || k >= len(n.items) {
			return nil, false
		}
		return n.items[k], true
	}
	return nil, false
}

// child returns the node under key for path traversal.
func (n *node) child(key any) *node {
	if !n.validKey(key) {
		panic(ErrInvalidPath)
	}
	v, _ := n.value(key)
	c, ok := v.(*node)
	if !ok {
		panic(ErrInvalidPath)
	}
	return c
}

func (n *node) validKey(key any) bool {
	switch key.(type) {
	case string:
		return !n.array
	case int:
		return n.array
	}
	return false
}

func (n *node) length() int {
	if n.array {
		return len(n.items)
	}
	return len(n.keys)
}

func listening() bool {
	return internal.GetRuntime().Listener() != nil
}

func newTracker() *internal.Signal {
	// trackers always notify, the value lives on the node
	return internal.GetRuntime().NewSignal(nil, nil)
}

// track registers a read of key. Trackers are only created for reads made
// by a computation.
func (n *node) track(key any) {
	if s := n.nodes[key]; s != nil {
		s.Read()
		return
	}
	if !listening() {
		return
	}
	if n.nodes == nil {
		n.nodes = map[any]*internal.Signal{}
	}
	s := newTracker()
	n.nodes[key] = s
	s.Read()
}

func (n *node) trackHas(key string) {
	if s := n.has[key]; s != nil {
		s.Read()
		return
	}
	if !listening() {
		return
	}
	if n.has == nil {
		n.has = map[string]*internal.Signal{}
	}
	s := newTracker()
	n.has[key] = s
	s.Read()
}

func (n *node) trackSelf() {
	if n.self == nil {
		if !listening() {
			return
		}
		n.self = newTracker()
	}
	n.self.Read()
}

func (n *node) notify(key any) {
	if s := n.nodes[key]; s != nil {
		s.Write(nil)
	}
}

func (n *node) notifyHas(key string) {
	if s := n.has[key]; s != nil {
		s.Write(nil)
	}
}

func (n *node) notifySelf() {
	if n.self != nil {
		n.self.Write(nil)
	}
}

// setProperty writes one key of n and notifies what observed it. Writing
// Deleted, or deleting, removes the key from objects and clears the item of
// arrays. Writes that change nothing notify nobody. Callers batch.
func setProperty(n *node, key any, value any, deleting bool) {
	if value == Deleted {
		deleting = true
	}

	var changed bool
	switch k := key.(type) {
	case string:
		if n.array {
			panic(ErrInvalidPath)
		}
		changed = setField(n, k, value, deleting)
	case int:
		if !n.array || k < 0 {
			panic(ErrInvalidPath)
		}
		changed = setItem(n, k, value, deleting)
	case lengthKey:
		changed = setLength(n, value.(int))
	default:
		panic(ErrInvalidPath)
	}

	if changed {
		n.notifySelf()
	}
}

func setField(n *node, key string, value any, deleting bool) bool {
	prev, exists := n.fields[key]
	if deleting {
		if !exists {
			return false
		}
		delete(n.fields, key)
		if i := slices.Index(n.keys, key); i >= 0 {
			n.keys = slices.Delete(n.keys, i, i+1)
		}
		n.notifyHas(key)
		n.notify(key)
		return true
	}

	if exists && same(prev, value) {
		return false
	}

	n.fields[key] = value
	if !exists {
		n.keys = append(n.keys, key)
		n.notifyHas(key)
	}
	n.notify(key)
	return true
}

func setItem(n *node, i int, value any, deleting bool) bool {
	if deleting {
		value = nil
	}
	if i < len(n.items) && same(n.items[i], value) {
		return false
	}

	prevLen := len(n.items)
	for len(n.items) <= i {
		n.items = append(n.items, nil)
	}
	n.items[i] = value
	n.notify(i)

	if len(n.items) != prevLen {
		n.notify(lengthKey{})
	}
	return true
}

func setLength(n *node, length int) bool {
	prevLen := len(n.items)
	if length == prevLen {
		return false
	}

	if length < prevLen {
		n.items = n.items[:length]
		for i := length; i < prevLen; i++ {
			n.notify(i)
		}
	} else {
		n.items = append(n.items, make([]any, length-prevLen)...)
	}
	n.notify(lengthKey{})
	return true
}

// mergeNode shallow merges the keys of value into n.
func mergeNode(n *node, value *node) {
	if value.array {
		for i, item := range value.items {
			setProperty(n, i, item, false)
		}
		return
	}
	for _, k := range value.keys {
		setProperty(n, k, value.fields[k], false)
	}
}

func batch(fn func()) {
	internal.GetRuntime().Batch(fn)
}
