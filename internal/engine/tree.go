package engine

import (
	"path"
	"strconv"
	"strings"

	gmast "github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/docsnap/internal/doctree"
)

// treeBuilder converts one parsed Markdown body into a doctree.
type treeBuilder struct {
	src *source
}

type openSection struct {
	level int
	node  *doctree.Sourced
}

func (b *treeBuilder) build(root gmast.Node) *doctree.Document {
	doc := doctree.NewDocument(b.src.name, b.src.path)
	if b.src.header.Title != "" {
		doc.SetAttr("title", b.src.header.Title)
	}

	var stack []openSection
	container := func() *doctree.Element {
		if len(stack) == 0 {
			return &doc.Element
		}
		return &stack[len(stack)-1].node.Element
	}

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*gmast.Heading)
		if !ok {
			if c := b.block(n); c != nil {
				container().Append(c)
			}
			continue
		}
		for len(stack) > 0 && stack[len(stack)-1].level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		title := b.inlines(h)
		text := doctree.PlainText(title)
		section := doctree.NewSourced("section", b.src.path, b.lineOf(h),
			"ids", headingID(h, text),
			"names", normalizeName(text))
		section.Append(title)
		container().Append(section)
		stack = append(stack, openSection{level: h.Level, node: section})
	}
	return doc
}

func (b *treeBuilder) block(n gmast.Node) doctree.Node {
	switch v := n.(type) {
	case *gmast.Paragraph, *gmast.TextBlock:
		p := doctree.NewElement("paragraph")
		return p.Append(b.inlines(v).Nodes...)
	case *gmast.Heading:
		// Headings nested in lists or quotes do not open sections.
		r := doctree.NewElement("rubric")
		return r.Append(b.inlines(v).Nodes...)
	case *gmast.FencedCodeBlock:
		lb := doctree.NewSourced("literal_block", b.src.path, b.lineOf(v), "xml:space", "preserve")
		if lang := v.Language(b.src.body); len(lang) > 0 {
			lb.SetAttr("language", string(lang))
		}
		lb.Append(doctree.NewText(linesText(v, b.src.body)))
		return lb
	case *gmast.CodeBlock:
		lb := doctree.NewSourced("literal_block", b.src.path, b.lineOf(v), "xml:space", "preserve")
		lb.Append(doctree.NewText(linesText(v, b.src.body)))
		return lb
	case *gmast.List:
		var l *doctree.Element
		if v.IsOrdered() {
			l = doctree.NewElement("enumerated_list", "enumtype", "arabic", "suffix", string(v.Marker))
			if v.Start > 1 {
				l.SetAttr("start", strconv.Itoa(v.Start))
			}
		} else {
			l = doctree.NewElement("bullet_list", "bullet", string(v.Marker))
		}
		return l.Append(b.blocks(v)...)
	case *gmast.ListItem:
		return doctree.NewElement("list_item").Append(b.blocks(v)...)
	case *gmast.Blockquote:
		return doctree.NewElement("block_quote").Append(b.blocks(v)...)
	case *gmast.ThematicBreak:
		return doctree.NewElement("transition")
	case *gmast.HTMLBlock:
		text := linesText(v, b.src.body)
		if v.HasClosure() {
			text += string(v.ClosureLine.Value(b.src.body))
		}
		return doctree.NewElement("raw", "format", "html", "xml:space", "preserve").Append(doctree.NewText(text))
	}
	e := doctree.NewElement(strings.ToLower(n.Kind().String()))
	return e.Append(b.blocks(n)...)
}

func (b *treeBuilder) blocks(parent gmast.Node) []doctree.Node {
	var out []doctree.Node
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		if n := b.block(c); n != nil {
			out = append(out, n)
		}
	}
	return out
}

// inlines converts the inline children of parent into a title/paragraph body.
// Adjacent text runs are merged.
func (b *treeBuilder) inlines(parent gmast.Node) *doctree.Element {
	out := doctree.NewElement("title")
	line := b.lineOf(parent)
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		appendInline(out, b.inline(c, line))
	}
	return out
}

func appendInline(dst *doctree.Element, n doctree.Node) {
	if n == nil {
		return
	}
	if t, ok := n.(*doctree.Text); ok && len(dst.Nodes) > 0 {
		if prev, ok := dst.Nodes[len(dst.Nodes)-1].(*doctree.Text); ok {
			prev.Value += t.Value
			return
		}
	}
	dst.Append(n)
}

func (b *treeBuilder) inline(n gmast.Node, line int) doctree.Node {
	body := b.src.body
	switch v := n.(type) {
	case *gmast.Text:
		s := string(v.Segment.Value(body))
		if v.SoftLineBreak() || v.HardLineBreak() {
			s += "\n"
		}
		return doctree.NewText(s)
	case *gmast.String:
		return doctree.NewText(string(v.Value))
	case *gmast.CodeSpan:
		return doctree.NewElement("literal").Append(doctree.NewText(inlineText(v, body)))
	case *gmast.Emphasis:
		tag := "emphasis"
		if v.Level > 1 {
			tag = "strong"
		}
		return b.wrap(doctree.NewElement(tag), v, line)
	case *gmast.AutoLink:
		u := string(v.URL(body))
		return doctree.NewElement("reference", "refuri", u).Append(doctree.NewText(string(v.Label(body))))
	case *gmast.Image:
		return doctree.NewElement("image", "uri", string(v.Destination), "alt", inlineText(v, body))
	case *gmast.Link:
		dest := string(v.Destination)
		if target, anchor, ok := internalTarget(b.src.name, dest); ok {
			x := doctree.NewSourced("pending_xref", b.src.path, line,
				"refdoc", b.src.name, "reftarget", target, "refanchor", anchor,
				"reftype", "doc", "refexplicit", "True")
			b.wrapInto(&x.Element, v, line)
			return x
		}
		ref := doctree.NewElement("reference", "refuri", dest)
		if len(v.Title) > 0 {
			ref.SetAttr("reftitle", string(v.Title))
		}
		return b.wrap(ref, v, line)
	case *gmast.RawHTML:
		var sb strings.Builder
		for i := 0; i < v.Segments.Len(); i++ {
			seg := v.Segments.At(i)
			sb.Write(seg.Value(body))
		}
		return doctree.NewElement("raw", "format", "html", "xml:space", "preserve").Append(doctree.NewText(sb.String()))
	}
	return b.wrap(doctree.NewElement(strings.ToLower(n.Kind().String())), n, line)
}

func (b *treeBuilder) wrap(e *doctree.Element, n gmast.Node, line int) *doctree.Element {
	b.wrapInto(e, n, line)
	return e
}

func (b *treeBuilder) wrapInto(e *doctree.Element, n gmast.Node, line int) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		appendInline(e, b.inline(c, line))
	}
}

// lineOf finds the first source line covered by n or one of its descendants.
func (b *treeBuilder) lineOf(n gmast.Node) int {
	for cur := n; cur != nil; cur = cur.FirstChild() {
		if cur.Type() == gmast.TypeBlock && cur.Lines().Len() > 0 {
			return b.src.line(cur.Lines().At(0).Start)
		}
		if t, ok := cur.(*gmast.Text); ok {
			return b.src.line(t.Segment.Start)
		}
	}
	if p := n.Parent(); p != nil && p.Type() == gmast.TypeBlock && p.Kind() != gmast.KindDocument {
		return b.lineOf(p)
	}
	return 0
}

// internalTarget classifies a link destination as a reference to another
// document: either `doc:<name>` or a relative path ending in .md.
func internalTarget(current, dest string) (target, anchor string, ok bool) {
	if rest, found := strings.CutPrefix(dest, "doc:"); found {
		target, anchor, _ = strings.Cut(rest, "#")
		return strings.TrimPrefix(target, "/"), anchor, target != ""
	}
	if strings.Contains(dest, "://") || strings.HasPrefix(dest, "mailto:") {
		return "", "", false
	}
	p, anchor, _ := strings.Cut(dest, "#")
	if !strings.HasSuffix(p, sourceSuffix) {
		return "", "", false
	}
	p = strings.TrimSuffix(p, sourceSuffix)
	if !strings.HasPrefix(p, "/") {
		p = path.Join(path.Dir(current), p)
	}
	return strings.TrimPrefix(path.Clean(p), "/"), anchor, true
}

func headingID(h *gmast.Heading, text string) string {
	if v, ok := h.AttributeString("id"); ok {
		if id, ok := v.([]byte); ok {
			return string(id)
		}
	}
	return strings.ReplaceAll(normalizeName(text), " ", "-")
}

// normalizeName lowercases and collapses whitespace.
func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func linesText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return sb.String()
}

func inlineText(n gmast.Node, source []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			sb.Write(t.Segment.Value(source))
		case *gmast.String:
			sb.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return sb.String()
}
