package output

import (
	stderrors "errors"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

// ErrAmbiguousRegion is the cause of the validation error returned when the
// page does not contain exactly one region element.
var ErrAmbiguousRegion = stderrors.New("expected exactly one region element")

// NormalizeHTML keeps only the element carrying regionClass, collapses
// whitespace marker spans inside <pre>, renders the region in canonical
// indented form and applies replacements. The default class only matches
// <div> elements; a custom class matches any element.
func NormalizeHTML(content, regionClass string, replacements Replacements) (string, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", errors.DecodeError("parse html").WithCause(err).Build()
	}

	var tag atom.Atom
	if regionClass == DefaultRegionClass {
		tag = atom.Div
	}
	regions := findByClass(doc, tag, regionClass)
	if len(regions) != 1 {
		return "", errors.ValidationError("ambiguous normalization region").
			Fatal().
			WithCause(ErrAmbiguousRegion).
			WithContext("class", regionClass).
			WithContext("matches", len(regions)).
			Build()
	}
	region := regions[0]

	collapseWhitespaceSpans(region)

	var b strings.Builder
	prettify(&b, region, 0)
	return replacements.Apply(b.String()), nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == "class" {
			return slices.Contains(strings.Fields(a.Val), class)
		}
	}
	return false
}

// findByClass returns the elements with class, restricted to tag unless tag
// is zero.
func findByClass(root *html.Node, tag atom.Atom, class string) []*html.Node {
	var out []*html.Node
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && (tag == 0 || n.DataAtom == tag) && hasClass(n, class) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(root)
	return out
}

// collapseWhitespaceSpans replaces every `pre > span.w` with its text.
func collapseWhitespaceSpans(root *html.Node) {
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Pre {
			for c := n.FirstChild; c != nil; {
				next := c.NextSibling
				if c.Type == html.ElementNode && c.DataAtom == atom.Span && hasClass(c, "w") {
					n.InsertBefore(&html.Node{Type: html.TextNode, Data: textContent(c)}, c)
					n.RemoveChild(c)
				}
				c = next
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(root)
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// prettify writes n with one space of indentation per depth. Each tag and
// each non-blank text run gets its own line; text is trimmed. The content of
// pre and textarea is written verbatim.
func prettify(b *strings.Builder, n *html.Node, depth int) {
	indent := strings.Repeat(" ", depth)

	switch n.Type {
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return
		}
		b.WriteString(indent)
		if n.Parent != nil && (n.Parent.DataAtom == atom.Script || n.Parent.DataAtom == atom.Style) {
			b.WriteString(text)
		} else {
			b.WriteString(textEscaper.Replace(text))
		}
		b.WriteByte('\n')
		return
	case html.CommentNode:
		b.WriteString(indent)
		b.WriteString("<!--")
		b.WriteString(n.Data)
		b.WriteString("-->\n")
		return
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			prettify(b, c, depth)
		}
		return
	case html.ElementNode:
	default:
		return
	}

	b.WriteString(indent)
	writeStartTag(b, n)
	if voidElements[n.Data] {
		b.WriteString("/>\n")
		return
	}

	if n.DataAtom == atom.Pre || n.DataAtom == atom.Textarea {
		b.WriteByte('>')
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeVerbatim(b, c)
		}
		b.WriteString("</")
		b.WriteString(n.Data)
		b.WriteString(">\n")
		return
	}

	b.WriteString(">\n")
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		prettify(b, c, depth+1)
	}
	b.WriteString(indent)
	b.WriteString("</")
	b.WriteString(n.Data)
	b.WriteString(">\n")
}

// writeStartTag writes `<tag attrs`; callers close the tag.
func writeStartTag(b *strings.Builder, n *html.Node) {
	b.WriteByte('<')
	b.WriteString(n.Data)
	for _, a := range n.Attr {
		b.WriteByte(' ')
		if a.Namespace != "" {
			b.WriteString(a.Namespace)
			b.WriteByte(':')
		}
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(a.Val))
		b.WriteByte('"')
	}
}

// writeVerbatim serializes n without adding or removing whitespace.
func writeVerbatim(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(textEscaper.Replace(n.Data))
	case html.CommentNode:
		b.WriteString("<!--")
		b.WriteString(n.Data)
		b.WriteString("-->")
	case html.ElementNode:
		writeStartTag(b, n)
		if voidElements[n.Data] {
			b.WriteString("/>")
			return
		}
		b.WriteByte('>')
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeVerbatim(b, c)
		}
		b.WriteString("</")
		b.WriteString(n.Data)
		b.WriteByte('>')
	}
}
