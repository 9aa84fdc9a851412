package dom

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/AnatoleLucet/sig/v2"
)

// bind applies value now, or on every change when it is a function.
func bind(value any, apply func(v any)) {
	fn, ok := asFunc(value)
	if !ok {
		apply(value)
		return
	}

	sig.NewRenderEffect(func() { apply(fn()) })
}

// SetAttribute binds an attribute. A nil value removes it, other values
// are formatted as text.
func SetAttribute(doc Document, node Node, name string, value any) {
	bind(value, func(v any) {
		if v == nil {
			doc.RemoveAttribute(node, name)
			return
		}
		text, ok := toText(v)
		if !ok {
			text = fmt.Sprint(v)
		}
		doc.SetAttribute(node, name, text)
	})
}

// SetBoolAttribute binds the presence of an attribute.
func SetBoolAttribute(doc Document, node Node, name string, value any) {
	bind(value, func(v any) {
		if on, _ := v.(bool); on {
			doc.SetAttribute(node, name, "")
		} else {
			doc.RemoveAttribute(node, name)
		}
	})
}

// SetProperty binds a property of node.
func SetProperty(doc Document, node Node, name string, value any) {
	bind(value, func(v any) { doc.SetProperty(node, name, v) })
}

// ClassList binds classes from a map of class names to whether they are
// set. A key may hold several space separated names.
func ClassList(doc Document, node Node, value any) {
	prev := map[string]bool{}

	bind(value, func(v any) {
		next, _ := v.(map[string]bool)

		for _, key := range slices.Sorted(maps.Keys(prev)) {
			if key == "" || next[key] {
				continue
			}
			toggleClass(doc, node, key, false)
			delete(prev, key)
		}
		for _, key := range slices.Sorted(maps.Keys(next)) {
			if key == "" || !next[key] || prev[key] {
				continue
			}
			toggleClass(doc, node, key, true)
			prev[key] = true
		}
	})
}

func toggleClass(doc Document, node Node, key string, on bool) {
	for _, name := range strings.Fields(key) {
		doc.ToggleClass(node, name, on)
	}
}

// Style binds inline styles from a map of properties to values, or from a
// whole style string. nil removes the style attribute.
func Style(doc Document, node Node, value any) {
	var prev map[string]string

	bind(value, func(v any) {
		switch s := v.(type) {
		case nil:
			if prev != nil {
				doc.RemoveAttribute(node, "style")
			}
			prev = nil

		case string:
			doc.SetAttribute(node, "style", s)
			prev = map[string]string{}

		case map[string]string:
			for _, name := range slices.Sorted(maps.Keys(prev)) {
				if _, ok := s[name]; !ok {
					doc.SetStyle(node, name, "")
				}
			}
			next := make(map[string]string, len(s))
			for _, name := range slices.Sorted(maps.Keys(s)) {
				if prev == nil || prev[name] != s[name] {
					doc.SetStyle(node, name, s[name])
				}
				next[name] = s[name]
			}
			prev = next
		}
	})
}

// On listens to event on node until the current owner is disposed.
func On(doc Document, node Node, event string, handler func(event any)) {
	remove := doc.AddEventListener(node, event, handler)
	if sig.GetOwner() != nil {
		sig.OnCleanup(remove)
	}
}

// Use calls fn with node, untracked. It is how refs and directives reach
// the nodes they decorate.
func Use(node Node, fn func(node Node)) {
	sig.Untrack(func() struct{} {
		fn(node)
		return struct{}{}
	})
}
