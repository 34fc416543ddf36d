// Package doctree models the structured, in-memory representation of one
// source document as produced by a build engine.
//
// A tree is made of Elements and Text leaves. Variants that know where in the
// sources they came from implement HasSourceLocation; tree-wide path
// normalization is done by visiting exactly those nodes.
package doctree

import (
	"maps"
	"strings"
)

// Node is one element or text node of a document tree.
type Node interface {
	// Tag is the node name used by the pseudo-XML form ("#text" for text).
	Tag() string
	// Children returns the direct children, in document order.
	Children() []Node
	// Clone returns a deep copy.
	Clone() Node
}

// HasSourceLocation is implemented by node variants that record the source
// file they were read from.
type HasSourceLocation interface {
	Node
	Source() string
	SetSource(path string)
}

// Attributes holds element attributes. Multi-valued attributes (ids, names,
// classes) are stored space separated.
type Attributes map[string]string

// Element is a generic tree element.
type Element struct {
	Name  string
	Attrs Attributes
	Nodes []Node
}

// NewElement creates an element with attributes given as key/value pairs.
func NewElement(tag string, kv ...string) *Element {
	e := &Element{Name: tag, Attrs: Attributes{}}
	for i := 0; i+1 < len(kv); i += 2 {
		e.Attrs[kv[i]] = kv[i+1]
	}
	return e
}

func (e *Element) Tag() string      { return e.Name }
func (e *Element) Children() []Node { return e.Nodes }

// Append adds children and returns the element for chaining.
func (e *Element) Append(children ...Node) *Element {
	e.Nodes = append(e.Nodes, children...)
	return e
}

// Attr returns the attribute value or "".
func (e *Element) Attr(key string) string {
	return e.Attrs[key]
}

// SetAttr sets an attribute, allocating the map when needed.
func (e *Element) SetAttr(key, value string) {
	if e.Attrs == nil {
		e.Attrs = Attributes{}
	}
	e.Attrs[key] = value
}

// ReplaceChild swaps old for replacement among the direct children.
// It reports whether old was found.
func (e *Element) ReplaceChild(old, replacement Node) bool {
	for i, c := range e.Nodes {
		if c == old {
			e.Nodes[i] = replacement
			return true
		}
	}
	return false
}

func (e *Element) Clone() Node {
	return e.cloneElement()
}

func (e *Element) cloneElement() *Element {
	out := &Element{Name: e.Name, Attrs: maps.Clone(e.Attrs)}
	if len(e.Nodes) > 0 {
		out.Nodes = make([]Node, len(e.Nodes))
		for i, c := range e.Nodes {
			out.Nodes[i] = c.Clone()
		}
	}
	return out
}

// Text is a leaf holding character data.
type Text struct {
	Value string
}

// NewText creates a text node.
func NewText(s string) *Text { return &Text{Value: s} }

func (t *Text) Tag() string      { return "#text" }
func (t *Text) Children() []Node { return nil }
func (t *Text) Clone() Node      { return &Text{Value: t.Value} }

// Sourced is an element that records its source file and line.
type Sourced struct {
	Element
	SourcePath string
	Line       int
}

// NewSourced creates a source-bearing element.
func NewSourced(tag, source string, line int, kv ...string) *Sourced {
	return &Sourced{Element: *NewElement(tag, kv...), SourcePath: source, Line: line}
}

func (s *Sourced) Source() string       { return s.SourcePath }
func (s *Sourced) SetSource(path string) { s.SourcePath = path }

func (s *Sourced) Clone() Node {
	return &Sourced{Element: *s.cloneElement(), SourcePath: s.SourcePath, Line: s.Line}
}

// Document is the root of one document's tree.
type Document struct {
	Sourced
	// DocName is the engine's name for the document (slash separated, no extension).
	DocName string
}

// NewDocument creates a root node for docName read from source.
func NewDocument(docName, source string) *Document {
	return &Document{Sourced: *NewSourced("document", source, 0), DocName: docName}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() Node {
	return d.CloneDocument()
}

// CloneDocument is Clone without the type assertion.
func (d *Document) CloneDocument() *Document {
	return &Document{
		Sourced: Sourced{Element: *d.cloneElement(), SourcePath: d.SourcePath, Line: d.Line},
		DocName: d.DocName,
	}
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func Walk(n Node, fn func(Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// Collect returns every node in the tree rooted at root that implements T,
// in pre-order.
func Collect[T any](root Node) []T {
	var out []T
	Walk(root, func(n Node) bool {
		if v, ok := n.(T); ok {
			out = append(out, v)
		}
		return true
	})
	return out
}

// PlainText concatenates the text content of n.
func PlainText(n Node) string {
	var b strings.Builder
	Walk(n, func(c Node) bool {
		if t, ok := c.(*Text); ok {
			b.WriteString(t.Value)
		}
		return true
	})
	return b.String()
}
