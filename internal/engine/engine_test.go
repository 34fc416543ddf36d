package engine

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsnap/internal/doctree"
	"git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

const indexSource = `---
title: Welcome
---
# Welcome

See [the guide](guide/intro.md#setup) and [gone](missing.md).

` + "```python\nx = 1\n```\n" + `
## Details

Some *emphasis* and ` + "`code`" + `.
`

const introSource = `# Intro

## Setup

Back to [home](../index.md) or [home again](doc:index).
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return dir
}

func defaultProject(t *testing.T) string {
	return writeProject(t, map[string]string{
		"conf.yaml":      "project: Demo\n",
		"index.md":       indexSource,
		"guide/intro.md": introSource,
	})
}

func build(t *testing.T, cfg Config) (*Env, string) {
	t.Helper()
	var status bytes.Buffer
	cfg.Status = &status
	env, err := New().Build(context.Background(), cfg)
	require.NoError(t, err)
	return env.(*Env), status.String()
}

func TestBuild_HTMLWritesPagesAndReportsWarnings(t *testing.T) {
	src := defaultProject(t)
	var warnings bytes.Buffer

	env, status := build(t, Config{SrcDir: src, Warning: &warnings})

	require.Equal(t, []string{"guide/intro", "index"}, env.Docs())
	require.FileExists(t, filepath.Join(src, "_build", "html", "index.html"))
	require.FileExists(t, filepath.Join(src, "_build", "html", "guide", "intro.html"))
	require.Contains(t, status, "building [html]: 2 source files out of date")
	require.Contains(t, status, "build succeeded, 1 warning.")
	require.Contains(t, warnings.String(), "unknown document: 'missing'")

	page, err := os.ReadFile(filepath.Join(src, "_build", "html", "index.html"))
	require.NoError(t, err)
	html := string(page)
	require.Contains(t, html, `<div class="documentwrapper">`)
	require.Contains(t, html, `href="guide/intro.html#setup"`)
	require.Contains(t, html, `<title>Welcome &#8212; Demo</title>`)
	require.Contains(t, html, `<pre><span></span><span class="n">x</span><span class="w"> </span>`)
	require.Contains(t, html, src)

	intro, err := os.ReadFile(filepath.Join(src, "_build", "html", "guide", "intro.html"))
	require.NoError(t, err)
	require.Contains(t, string(intro), `href="../index.html"`)
}

func TestBuild_DocTreeStructure(t *testing.T) {
	src := defaultProject(t)
	env, _ := build(t, Config{SrcDir: src})

	tree, err := env.DocTree("index")
	require.NoError(t, err)
	require.Equal(t, "Welcome", tree.Attr("title"))
	require.Equal(t, filepath.Join(src, "index.md"), tree.Source())

	out := doctree.PFormat(tree)
	require.Contains(t, out, `<section ids="welcome" names="welcome" source="`)
	require.Contains(t, out, `<section ids="details" names="details" source="`)
	require.Contains(t, out, `<pending_xref refanchor="setup" refdoc="index" refexplicit="True" reftarget="guide/intro" reftype="doc" source="`)
	require.Contains(t, out, `<literal_block language="python" source="`)

	// "Details" is nested inside "Welcome".
	welcome := tree.Nodes[0].(*doctree.Sourced)
	last := welcome.Nodes[len(welcome.Nodes)-1].(*doctree.Sourced)
	require.Equal(t, "details", last.Attr("ids"))
	require.Equal(t, 12, last.Line)
}

func TestResolvedDocTree_ReplacesPendingXrefs(t *testing.T) {
	src := defaultProject(t)
	env, _ := build(t, Config{SrcDir: src})
	before := len(env.Warnings())

	resolved, err := env.ResolvedDocTree("index")
	require.NoError(t, err)
	out := doctree.PFormat(resolved)
	require.NotContains(t, out, "pending_xref")
	require.Contains(t, out, `<reference internal="True" refuri="guide/intro.html#setup">`)
	require.Contains(t, out, `<inline classes="xref missing">`)
	require.Len(t, env.Warnings(), before+1)

	// The unresolved tree is untouched.
	tree, err := env.DocTree("index")
	require.NoError(t, err)
	require.Contains(t, doctree.PFormat(tree), "pending_xref")

	// Resolution records warnings again on every call.
	_, err = env.ResolvedDocTree("index")
	require.NoError(t, err)
	require.Len(t, env.Warnings(), before+2)

	intro, err := env.ResolvedDocTree("guide/intro")
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(doctree.PFormat(intro), `refuri="../index.html"`))
}

func TestResolvedDocTree_UnknownDoc(t *testing.T) {
	env, _ := build(t, Config{SrcDir: defaultProject(t)})
	_, err := env.ResolvedDocTree("nope")
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestBuild_IncrementalSkipsUnchangedDocs(t *testing.T) {
	src := defaultProject(t)
	_, status := build(t, Config{SrcDir: src})
	require.Contains(t, status, "2 source files out of date")

	_, status = build(t, Config{SrcDir: src})
	require.Contains(t, status, "0 source files out of date")

	require.NoError(t, os.WriteFile(filepath.Join(src, "guide", "intro.md"), []byte(introSource+"\nMore.\n"), 0o600))
	_, status = build(t, Config{SrcDir: src})
	require.Contains(t, status, "1 source files out of date")

	_, status = build(t, Config{SrcDir: src, Fresh: true})
	require.Contains(t, status, "2 source files out of date")

	_, status = build(t, Config{SrcDir: src, Overrides: map[string]any{"project": "Other"}})
	require.Contains(t, status, "2 source files out of date")
}

func TestBuild_DirHTMLAndPseudoXML(t *testing.T) {
	src := defaultProject(t)

	build(t, Config{SrcDir: src, Builder: BuilderDirHTML})
	require.FileExists(t, filepath.Join(src, "_build", "dirhtml", "index.html"))
	require.FileExists(t, filepath.Join(src, "_build", "dirhtml", "guide", "intro", "index.html"))
	page, err := os.ReadFile(filepath.Join(src, "_build", "dirhtml", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(page), `href="guide/intro/#setup"`)

	build(t, Config{SrcDir: src, Builder: BuilderPseudoXML})
	xml, err := os.ReadFile(filepath.Join(src, "_build", "pseudoxml", "index.pseudoxml"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(xml), `<document source="`+filepath.Join(src, "index.md")+`" title="Welcome">`))
}

func TestBuild_OutputEncoding(t *testing.T) {
	src := writeProject(t, map[string]string{
		"conf.yaml": "output_encoding: latin1\n",
		"index.md":  "# Café\n\n☃\n",
	})
	build(t, Config{SrcDir: src})

	page, err := os.ReadFile(filepath.Join(src, "_build", "html", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(page), `<meta charset="windows-1252">`)
	require.True(t, bytes.Contains(page, []byte("Caf\xe9")))
	require.Contains(t, string(page), "&#9731;")
}

func TestBuild_OnlyTags(t *testing.T) {
	src := writeProject(t, map[string]string{
		"index.md":    "# Home\n",
		"internal.md": "---\nonly: [internal]\n---\n# Internal\n",
	})

	env, _ := build(t, Config{SrcDir: src})
	require.Equal(t, []string{"index"}, env.Docs())

	env, _ = build(t, Config{SrcDir: src, Tags: []string{"internal"}})
	require.Equal(t, []string{"index", "internal"}, env.Docs())
}

func TestBuild_SkipsBuildAndHiddenDirs(t *testing.T) {
	src := writeProject(t, map[string]string{
		"index.md":          "# Home\n",
		"_build/stale.md":   "# Stale\n",
		".hidden/secret.md": "# Secret\n",
	})
	env, _ := build(t, Config{SrcDir: src})
	require.Equal(t, []string{"index"}, env.Docs())
}

func TestBuild_Errors(t *testing.T) {
	_, err := New().Build(context.Background(), Config{SrcDir: t.TempDir(), Builder: "latex"})
	require.True(t, errors.HasCategory(err, errors.CategoryEngine))

	_, err = New().Build(context.Background(), Config{SrcDir: filepath.Join(t.TempDir(), "absent")})
	require.True(t, errors.HasCategory(err, errors.CategoryNotFound))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New().Build(ctx, Config{SrcDir: defaultProject(t)})
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuild_FixedClockInFooter(t *testing.T) {
	src := defaultProject(t)
	m := &Markdown{now: func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }}
	_, err := m.Build(context.Background(), Config{SrcDir: src})
	require.NoError(t, err)

	page, err := os.ReadFile(filepath.Join(src, "_build", "html", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(page), "Last updated on Tue, 02 Jan 2024 03:04:05 UTC.")
}

func TestRelativeURI(t *testing.T) {
	cases := []struct {
		builder, from, to, want string
	}{
		{BuilderHTML, "index.html", "guide/intro.html", "guide/intro.html"},
		{BuilderHTML, "guide/intro.html", "index.html", "../index.html"},
		{BuilderHTML, "a/b.html", "a/c.html", "c.html"},
		{BuilderDirHTML, "index.html", "guide/intro/index.html", "guide/intro/"},
		{BuilderDirHTML, "guide/intro/index.html", "index.html", "../../"},
		{BuilderDirHTML, "a/index.html", "a/index.html", "./"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, relativeURI(c.builder, c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestInternalTarget(t *testing.T) {
	cases := []struct {
		current, dest, target, anchor string
		ok                            bool
	}{
		{"index", "other.md", "other", "", true},
		{"guide/intro", "../index.md#top", "index", "top", true},
		{"guide/intro", "doc:api/ref", "api/ref", "", true},
		{"index", "https://example.com/x.md", "", "", false},
		{"index", "image.png", "", "", false},
		{"index", "#local", "", "", false},
	}
	for _, c := range cases {
		target, anchor, ok := internalTarget(c.current, c.dest)
		require.Equal(t, c.ok, ok, c.dest)
		require.Equal(t, c.target, target, c.dest)
		require.Equal(t, c.anchor, anchor, c.dest)
	}
}
