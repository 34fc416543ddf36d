package doctree

import (
	"sort"
	"strings"
)

const indentUnit = "    "

// PFormat renders the tree as indented pseudo-XML. Output is fully nested,
// attributes are sorted by name and empty attributes are omitted, so the same
// tree always renders to the same text.
func PFormat(n Node) string {
	var b strings.Builder
	pformat(&b, n, 0)
	return b.String()
}

func pformat(b *strings.Builder, n Node, depth int) {
	indent := strings.Repeat(indentUnit, depth)

	if t, ok := n.(*Text); ok {
		if t.Value == "" {
			return
		}
		for _, line := range strings.Split(strings.TrimSuffix(t.Value, "\n"), "\n") {
			b.WriteString(indent)
			b.WriteString(line)
			b.WriteByte('\n')
		}
		return
	}

	b.WriteString(indent)
	b.WriteString(startTag(n))
	b.WriteByte('\n')
	for _, c := range n.Children() {
		pformat(b, c, depth+1)
	}
}

func startTag(n Node) string {
	attrs := map[string]string{}
	if e := ElementOf(n); e != nil {
		for k, v := range e.Attrs {
			attrs[k] = v
		}
	}
	if s, ok := n.(HasSourceLocation); ok && s.Source() != "" {
		attrs["source"] = s.Source()
	}

	keys := make([]string, 0, len(attrs))
	for k, v := range attrs {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(n.Tag())
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(attrs[k]))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	return b.String()
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;")

// ElementOf returns the generic element behind n, or nil for text nodes.
func ElementOf(n Node) *Element {
	switch v := n.(type) {
	case *Element:
		return v
	case *Sourced:
		return &v.Element
	case *Document:
		return &v.Element
	}
	return nil
}
