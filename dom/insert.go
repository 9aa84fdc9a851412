package dom

import (
	"fmt"
	"reflect"

	"github.com/AnatoleLucet/sig/v2"
)

// Insert binds value to the children of parent, replacing any it had.
//
// value can be a string, a number, a bool or nil (nothing), a Node, a slice
// of any of these, or a function without arguments returning one of these
// (sig.Accessor values included), which is tracked by a render effect.
func Insert(doc Document, parent Node, value any) {
	insert(doc, parent, value, nil, false)
}

// InsertAt binds value to a range of the children of parent ending before
// marker, leaving the others alone. A nil marker binds to the end.
func InsertAt(doc Document, parent Node, value any, marker Node) {
	insert(doc, parent, value, marker, true)
}

// Render mounts the result of code into root under a new reactive root.
// The returned function disposes the root and clears root.
func Render(doc Document, code func() any, root Node) (dispose func()) {
	var disposer func()

	sig.NewRoot(func(d func()) struct{} {
		disposer = d
		multi := root.FirstChild() != nil
		insert(doc, root, code(), nil, multi)
		return struct{}{}
	})

	return func() {
		disposer()
		doc.SetTextContent(root, "")
	}
}

func insert(doc Document, parent Node, value any, marker Node, multi bool) {
	var current any
	if multi {
		current = []Node{}
	}

	fn, ok := asFunc(value)
	if !ok {
		insertExpression(doc, parent, value, current, marker, multi, false)
		return
	}

	sig.NewRenderEffect(func() {
		current = insertExpression(doc, parent, fn(), current, marker, multi, false)
	})
}

// insertExpression brings the children bound at marker from current to
// value and returns what is now bound there: "" or a string when parent
// holds a single text node, a Node, a []Node, or a getter of any of these
// when a nested effect keeps it up to date.
func insertExpression(doc Document, parent Node, value, current any, marker Node, multi, unwrap bool) any {
	for {
		get, ok := current.(func() any)
		if !ok {
			break
		}
		current = get()
	}
	if same(value, current) {
		return current
	}

	if cur, ok := current.([]Node); multi && ok && len(cur) > 0 {
		if p := cur[0].Parent(); p != nil {
			parent = p
		}
	}

	if text, ok := toText(value); ok {
		if s, ok := current.(string); ok && s == text {
			return current
		}

		if multi {
			var node Node
			if cur, ok := current.([]Node); ok && len(cur) > 0 {
				if data, isText := cur[0].Text(); isText {
					node = cur[0]
					if data != text {
						doc.SetText(node, text)
					}
				}
			}
			if node == nil {
				node = doc.CreateText(text)
			}
			return cleanChildren(doc, parent, current, marker, true, node)
		}

		if s, ok := current.(string); ok && s != "" {
			doc.SetText(parent.FirstChild(), text)
		} else {
			doc.SetTextContent(parent, text)
		}
		return text
	}

	if value == nil {
		return cleanChildren(doc, parent, current, marker, multi, nil)
	}
	if _, ok := value.(bool); ok {
		return cleanChildren(doc, parent, current, marker, multi, nil)
	}

	if fn, ok := asFunc(value); ok {
		sig.NewRenderEffect(func() {
			v := fn()
			for {
				next, ok := asFunc(v)
				if !ok {
					break
				}
				v = next()
			}
			current = insertExpression(doc, parent, v, current, marker, multi, false)
		})
		return func() any { return current }
	}

	if node, ok := value.(Node); ok {
		if cur, ok := current.([]Node); ok {
			if multi {
				return cleanChildren(doc, parent, cur, marker, true, node)
			}
			cleanChildren(doc, parent, cur, nil, true, node)
		} else if current == nil || current == "" || parent.FirstChild() == nil {
			doc.InsertBefore(parent, node, nil)
		} else {
			doc.Replace(parent.FirstChild(), node)
		}
		return node
	}

	items, ok := asSlice(value)
	if !ok {
		return current
	}

	array, dynamic := normalize(doc, nil, items, current, unwrap)
	if dynamic {
		sig.NewRenderEffect(func() {
			current = insertExpression(doc, parent, items, current, marker, multi, true)
		})
		return func() any { return current }
	}

	cur, isArray := current.([]Node)
	switch {
	case len(array) == 0:
		current = cleanChildren(doc, parent, current, marker, multi, nil)
		if multi {
			return current
		}
	case isArray && len(cur) == 0:
		appendNodes(doc, parent, array, marker)
	case isArray:
		ReconcileArrays(doc, parent, cur, array)
	default:
		if current != nil && current != "" {
			cleanChildren(doc, parent, current, nil, false, nil)
		}
		appendNodes(doc, parent, array, nil)
	}
	return array
}

// normalize flattens items into nodes, reusing the text nodes of current
// whose data did not change. It reports whether items hold functions, in
// which case the caller must track them.
func normalize(doc Document, out []Node, items []any, current any, unwrap bool) ([]Node, bool) {
	dynamic := false
	cur, _ := current.([]Node)

	for _, item := range items {
		var prev Node
		if len(out) < len(cur) {
			prev = cur[len(out)]
		}

		if item == nil {
			continue
		}
		if _, ok := item.(bool); ok {
			continue
		}

		if node, ok := item.(Node); ok {
			out = append(out, node)
			continue
		}

		if fn, ok := asFunc(item); ok {
			if !unwrap {
				dynamic = true
				continue
			}

			v := fn()
			for {
				next, ok := asFunc(v)
				if !ok {
					break
				}
				v = next()
			}
			nested, ok := asSlice(v)
			if !ok {
				nested = []any{v}
			}

			var d bool
			out, d = normalize(doc, out, nested, prevSlice(prev), false)
			dynamic = dynamic || d
			continue
		}

		if nested, ok := asSlice(item); ok {
			var d bool
			out, d = normalize(doc, out, nested, prevSlice(prev), false)
			dynamic = dynamic || d
			continue
		}

		text, ok := toText(item)
		if !ok {
			text = fmt.Sprint(item)
		}
		if prev != nil {
			if data, isText := prev.Text(); isText && data == text {
				out = append(out, prev)
				continue
			}
		}
		out = append(out, doc.CreateText(text))
	}

	return out, dynamic
}

func prevSlice(prev Node) []Node {
	if prev == nil {
		return nil
	}
	return []Node{prev}
}

func appendNodes(doc Document, parent Node, nodes []Node, marker Node) {
	for _, n := range nodes {
		doc.InsertBefore(parent, n, marker)
	}
}

// cleanChildren removes what current bound to parent, leaving replacement,
// or an empty text node, in its place. Outside multi mode it clears parent.
func cleanChildren(doc Document, parent Node, current any, marker Node, multi bool, replacement Node) any {
	if !multi {
		doc.SetTextContent(parent, "")
		return ""
	}

	node := replacement
	if node == nil {
		node = doc.CreateText("")
	}

	cur, _ := current.([]Node)
	if len(cur) == 0 {
		doc.InsertBefore(parent, node, marker)
		return []Node{node}
	}

	inserted := false
	for i := len(cur) - 1; i >= 0; i-- {
		el := cur[i]
		if el == node {
			inserted = true
			continue
		}

		isChild := el.Parent() == parent
		switch {
		case !inserted && i == 0:
			if isChild {
				doc.Replace(el, node)
			} else {
				doc.InsertBefore(parent, node, marker)
			}
		case isChild:
			doc.Remove(el)
		}
	}
	return []Node{node}
}

// same reports whether value is already what current binds.
func same(value, current any) bool {
	switch v := value.(type) {
	case string:
		c, ok := current.(string)
		return ok && c == v
	case Node:
		c, ok := current.(Node)
		return ok && c == v
	}
	return false
}

// asFunc accepts any function without arguments and with a single result,
// so that typed accessors can be bound.
func asFunc(v any) (func() any, bool) {
	switch fn := v.(type) {
	case nil:
		return nil, false
	case func() any:
		return fn, true
	case func() string:
		return func() any { return fn() }, true
	case sig.Accessor[any]:
		return fn, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func || rv.IsNil() || rv.Type().NumIn() != 0 || rv.Type().NumOut() != 1 {
		return nil, false
	}
	return func() any { return rv.Call(nil)[0].Interface() }, true
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []Node:
		out := make([]any, len(s))
		for i, n := range s {
			out[i] = n
		}
		return out, true
	case []byte:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// toText formats strings and numbers, the values bound as text.
func toText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case fmt.Stringer:
		if _, isNode := v.(Node); isNode {
			return "", false
		}
		return t.String(), true
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(v), true
	}
	return "", false
}
