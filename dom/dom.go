// Package dom mounts reactive values into a DOM-like tree.
//
// The tree itself is a collaborator: anything implementing Document and
// Node can be rendered into, a browser through syscall/js or the recording
// document of package memdom.
package dom

// Node is a handle on a node of the tree. Handles must be comparable and
// stable: the same node is always the same handle. Methods return a nil
// interface when there is no such node.
type Node interface {
	Parent() Node
	FirstChild() Node
	NextSibling() Node
	// Text returns the data of a text node, and false for elements.
	Text() (string, bool)
}

// Document creates and mutates nodes.
type Document interface {
	CreateElement(tag string) Node
	CreateText(value string) Node

	// InsertBefore moves node under parent, before marker. A nil marker
	// appends. Inserting a node before itself is a no-op.
	InsertBefore(parent, node, marker Node)
	Remove(node Node)
	Replace(old, node Node)

	SetText(node Node, value string)
	// SetTextContent replaces every child of node with a single text node,
	// or with nothing when value is empty.
	SetTextContent(node Node, value string)

	SetAttribute(node Node, name, value string)
	RemoveAttribute(node Node, name string)
	SetProperty(node Node, name string, value any)
	ToggleClass(node Node, name string, on bool)
	// SetStyle sets a style property, an empty value removes it.
	SetStyle(node Node, name, value string)

	AddEventListener(node Node, event string, handler func(event any)) (remove func())
}
