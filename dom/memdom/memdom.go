// Package memdom is an in-memory dom.Document that records every mutation
// it is asked to make, for tests and headless rendering.
package memdom

import (
	"maps"
	"slices"
	"strings"

	"github.com/AnatoleLucet/sig/v2/dom"
)

type OpKind int

const (
	OpInsert OpKind = iota
	OpRemove
	OpReplace
	OpText
	OpContent
	OpAttr
	OpProp
	OpClass
	OpStyle
)

func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "insert"
	case OpRemove:
		return "remove"
	case OpReplace:
		return "replace"
	case OpText:
		return "text"
	case OpContent:
		return "content"
	case OpAttr:
		return "attr"
	case OpProp:
		return "prop"
	case OpClass:
		return "class"
	case OpStyle:
		return "style"
	default:
		return "unknown"
	}
}

// Op is a recorded mutation. Node is the node mutated; Parent and Marker are
// set for inserts, Old for replaces, Name and Value for attributes,
// properties, classes and styles. A removed attribute has a nil Value.
type Op struct {
	Kind   OpKind
	Node   *Node
	Parent *Node
	Marker *Node
	Old    *Node
	Name   string
	Value  any
}

// Node is an element, or a text node when Tag is empty.
type Node struct {
	Tag   string
	Data  string
	Attrs map[string]string
	Props map[string]any
	Class map[string]bool
	Style map[string]string

	parent, first, last, prev, next *Node

	listeners map[string][]*listener
}

type listener struct {
	fn func(event any)
}

func node(n *Node) dom.Node {
	if n == nil {
		return nil
	}
	return n
}

func (n *Node) Parent() dom.Node      { return node(n.parent) }
func (n *Node) FirstChild() dom.Node  { return node(n.first) }
func (n *Node) NextSibling() dom.Node { return node(n.next) }

func (n *Node) Text() (string, bool) {
	return n.Data, n.Tag == ""
}

// Children returns the children of n in order.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.first; c != nil; c = c.next {
		out = append(out, c)
	}
	return out
}

// TextContent concatenates the text of every descendant.
func (n *Node) TextContent() string {
	if n.Tag == "" {
		return n.Data
	}

	var b strings.Builder
	for c := n.first; c != nil; c = c.next {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

// String renders n as markup with sorted attributes, classes and styles.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	if n.Tag == "" {
		b.WriteString(n.Data)
		return
	}

	b.WriteString("<" + n.Tag)
	for _, name := range slices.Sorted(maps.Keys(n.Attrs)) {
		if name == "class" || name == "style" {
			continue
		}
		b.WriteString(" " + name + `="` + n.Attrs[name] + `"`)
	}
	if class := n.className(); class != "" {
		b.WriteString(` class="` + class + `"`)
	}
	if style := n.styleText(); style != "" {
		b.WriteString(` style="` + style + `"`)
	}
	b.WriteString(">")

	for c := n.first; c != nil; c = c.next {
		c.write(b)
	}
	b.WriteString("</" + n.Tag + ">")
}

func (n *Node) className() string {
	names := []string{}
	if class := n.Attrs["class"]; class != "" {
		names = append(names, class)
	}
	for _, name := range slices.Sorted(maps.Keys(n.Class)) {
		names = append(names, name)
	}
	return strings.Join(names, " ")
}

func (n *Node) styleText() string {
	if style, ok := n.Attrs["style"]; ok && len(n.Style) == 0 {
		return style
	}

	parts := []string{}
	for _, name := range slices.Sorted(maps.Keys(n.Style)) {
		parts = append(parts, name+": "+n.Style[name])
	}
	return strings.Join(parts, "; ")
}

func (n *Node) detach() {
	p := n.parent
	if p == nil {
		return
	}

	if n.prev != nil {
		n.prev.next = n.next
	} else {
		p.first = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		p.last = n.prev
	}
	n.parent, n.prev, n.next = nil, nil, nil
}

func (n *Node) insertBefore(c, marker *Node) {
	c.detach()
	c.parent = n

	if marker == nil {
		c.prev = n.last
		if n.last != nil {
			n.last.next = c
		} else {
			n.first = c
		}
		n.last = c
		return
	}

	c.prev = marker.prev
	c.next = marker
	if marker.prev != nil {
		marker.prev.next = c
	} else {
		n.first = c
	}
	marker.prev = c
}

// Document is the recording dom.Document.
type Document struct {
	Ops []Op
}

func New() *Document {
	return &Document{}
}

func (d *Document) record(op Op) {
	d.Ops = append(d.Ops, op)
}

// Reset forgets the recorded operations.
func (d *Document) Reset() {
	d.Ops = nil
}

// Count returns how many operations of kind were recorded.
func (d *Document) Count(kind OpKind) int {
	count := 0
	for _, op := range d.Ops {
		if op.Kind == kind {
			count++
		}
	}
	return count
}

func (d *Document) CreateElement(tag string) dom.Node {
	return &Node{
		Tag:   tag,
		Attrs: map[string]string{},
		Props: map[string]any{},
		Class: map[string]bool{},
		Style: map[string]string{},
	}
}

func (d *Document) CreateText(value string) dom.Node {
	return &Node{Data: value}
}

func (d *Document) InsertBefore(parent, n, marker dom.Node) {
	p, c, m := unwrap(parent), unwrap(n), unwrap(marker)
	if m == c {
		m = c.next
	}

	d.record(Op{Kind: OpInsert, Node: c, Parent: p, Marker: m})
	if m != nil && m.prev == c {
		return
	}
	p.insertBefore(c, m)
}

func (d *Document) Remove(n dom.Node) {
	c := unwrap(n)

	d.record(Op{Kind: OpRemove, Node: c, Parent: c.parent})
	c.detach()
}

func (d *Document) Replace(old, n dom.Node) {
	o, c := unwrap(old), unwrap(n)
	if o == c || o.parent == nil {
		return
	}

	d.record(Op{Kind: OpReplace, Node: c, Old: o, Parent: o.parent})
	p, next := o.parent, o.next
	if next == c {
		next = c.next
	}
	o.detach()
	p.insertBefore(c, next)
}

func (d *Document) SetText(n dom.Node, value string) {
	c := unwrap(n)

	d.record(Op{Kind: OpText, Node: c, Value: value})
	c.Data = value
}

func (d *Document) SetTextContent(n dom.Node, value string) {
	p := unwrap(n)

	d.record(Op{Kind: OpContent, Node: p, Value: value})
	for p.first != nil {
		p.first.detach()
	}
	if value != "" {
		p.insertBefore(&Node{Data: value}, nil)
	}
}

func (d *Document) SetAttribute(n dom.Node, name, value string) {
	c := unwrap(n)

	d.record(Op{Kind: OpAttr, Node: c, Name: name, Value: value})
	c.Attrs[name] = value
	if name == "style" {
		clear(c.Style)
	}
}

func (d *Document) RemoveAttribute(n dom.Node, name string) {
	c := unwrap(n)

	d.record(Op{Kind: OpAttr, Node: c, Name: name})
	delete(c.Attrs, name)
	if name == "style" {
		clear(c.Style)
	}
}

func (d *Document) SetProperty(n dom.Node, name string, value any) {
	c := unwrap(n)

	d.record(Op{Kind: OpProp, Node: c, Name: name, Value: value})
	c.Props[name] = value
}

func (d *Document) ToggleClass(n dom.Node, name string, on bool) {
	c := unwrap(n)

	d.record(Op{Kind: OpClass, Node: c, Name: name, Value: on})
	if on {
		c.Class[name] = true
	} else {
		delete(c.Class, name)
	}
}

func (d *Document) SetStyle(n dom.Node, name, value string) {
	c := unwrap(n)

	d.record(Op{Kind: OpStyle, Node: c, Name: name, Value: value})
	if value == "" {
		delete(c.Style, name)
	} else {
		c.Style[name] = value
	}
}

func (d *Document) AddEventListener(n dom.Node, event string, handler func(event any)) (remove func()) {
	c := unwrap(n)
	if c.listeners == nil {
		c.listeners = map[string][]*listener{}
	}

	l := &listener{handler}
	c.listeners[event] = append(c.listeners[event], l)

	return func() {
		c.listeners[event] = slices.DeleteFunc(c.listeners[event], func(x *listener) bool { return x == l })
	}
}

// Dispatch calls the listeners of event on n, then on its ancestors.
func (d *Document) Dispatch(n *Node, event string, e any) {
	for c := n; c != nil; c = c.parent {
		for _, l := range slices.Clone(c.listeners[event]) {
			l.fn(e)
		}
	}
}

// Listeners returns how many listeners of event n has.
func (n *Node) Listeners(event string) int {
	return len(n.listeners[event])
}

func unwrap(n dom.Node) *Node {
	if n == nil {
		return nil
	}
	return n.(*Node)
}
