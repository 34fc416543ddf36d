package doctree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleTree() *Document {
	doc := NewDocument("guide/intro", "/abs/src/guide/intro.md")
	section := NewSourced("section", "/abs/src/guide/intro.md", 1, "ids", "intro", "names", "intro")
	section.Append(
		NewElement("title").Append(NewText("Intro")),
		NewElement("paragraph").Append(
			NewText("Some "),
			NewElement("emphasis").Append(NewText("text")),
		),
		NewSourced("literal_block", "/abs/src/guide/intro.md", 5, "language", "go").Append(NewText("a := 1\nb := 2\n")),
	)
	doc.Append(section)
	return doc
}

func TestPFormat_NestedAndSorted(t *testing.T) {
	expected := `<document source="/abs/src/guide/intro.md">
    <section ids="intro" names="intro" source="/abs/src/guide/intro.md">
        <title>
            Intro
        <paragraph>
            Some 
            <emphasis>
                text
        <literal_block language="go" source="/abs/src/guide/intro.md">
            a := 1
            b := 2
`
	require.Equal(t, expected, PFormat(sampleTree()))
}

func TestPFormat_EscapesAndOmitsEmptyAttributes(t *testing.T) {
	e := NewElement("reference", "refuri", `a?b="c"&d`, "name", "")
	require.Equal(t, "<reference refuri=\"a?b=&quot;c&quot;&amp;d\">\n", PFormat(e))
}

func TestClone_IsDeep(t *testing.T) {
	orig := sampleTree()
	cp := orig.CloneDocument()

	for _, s := range Collect[HasSourceLocation](cp) {
		s.SetSource("changed.md")
	}
	ElementOf(cp.Nodes[0]).Nodes[0].(*Element).Nodes[0].(*Text).Value = "Changed"

	require.Equal(t, "/abs/src/guide/intro.md", orig.Source())
	for _, s := range Collect[HasSourceLocation](orig) {
		require.Equal(t, "/abs/src/guide/intro.md", s.Source())
	}
	require.Equal(t, "Intro", PlainText(orig.Nodes[0].Children()[0]))
	require.Equal(t, "guide/intro", cp.DocName)
}

func TestCollect_FindsNestedSourcedNodes(t *testing.T) {
	sourced := Collect[HasSourceLocation](sampleTree())
	require.Len(t, sourced, 3)
	require.Equal(t, "document", sourced[0].Tag())
	require.Equal(t, "section", sourced[1].Tag())
	require.Equal(t, "literal_block", sourced[2].Tag())
}

func TestWalk_SkipChildren(t *testing.T) {
	var tags []string
	Walk(sampleTree(), func(n Node) bool {
		tags = append(tags, n.Tag())
		return n.Tag() != "paragraph"
	})
	require.Equal(t, []string{"document", "section", "title", "#text", "paragraph", "literal_block", "#text"}, tags)
}

func TestReplaceChild(t *testing.T) {
	parent := NewElement("paragraph")
	old := NewElement("pending_xref")
	parent.Append(NewText("see "), old)

	require.True(t, parent.ReplaceChild(old, NewElement("reference")))
	require.Equal(t, "reference", parent.Nodes[1].Tag())
	require.False(t, parent.ReplaceChild(old, NewText("x")))
}
