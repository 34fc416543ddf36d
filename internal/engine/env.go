package engine

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"git.home.luguber.info/inful/docsnap/internal/doctree"
	"git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

// Env is the Environment produced by the Markdown engine.
type Env struct {
	srcDir   string
	outDir   string
	builder  string
	project  Project
	docs     []string
	trees    map[string]*doctree.Document
	sources  map[string]*source
	warnings []string
	warnOut  io.Writer
}

var _ Environment = (*Env)(nil)

func newEnv(srcDir, outDir, builder string, project Project, warnOut io.Writer) *Env {
	return &Env{
		srcDir:  srcDir,
		outDir:  outDir,
		builder: builder,
		project: project,
		trees:   map[string]*doctree.Document{},
		sources: map[string]*source{},
		warnOut: warnOut,
	}
}

func (e *Env) add(src *source, tree *doctree.Document) {
	e.docs = append(e.docs, src.name)
	e.trees[src.name] = tree
	e.sources[src.name] = src
}

func (e *Env) SrcDir() string  { return e.srcDir }
func (e *Env) OutDir() string  { return e.outDir }
func (e *Env) Builder() string { return e.builder }

// BuilderDir is the directory the current builder writes to.
func (e *Env) BuilderDir() string { return filepath.Join(e.outDir, e.builder) }

// Project returns the settings the build ran with.
func (e *Env) Project() Project { return e.project }

func (e *Env) Docs() []string { return slices.Clone(e.docs) }

func (e *Env) Warnings() []string { return slices.Clone(e.warnings) }

// DocTree returns the engine's tree for doc. The tree is owned by the
// environment; callers that transform it must work on a clone.
func (e *Env) DocTree(doc string) (*doctree.Document, error) {
	tree, ok := e.trees[doc]
	if !ok {
		return nil, errors.NotFoundError("unknown document").WithContext("doc", doc).Build()
	}
	return tree, nil
}

// ResolvedDocTree returns a copy of doc's tree with every pending_xref
// replaced: known targets become internal references, unknown targets become
// inline text and a warning is recorded on each call.
func (e *Env) ResolvedDocTree(doc string) (*doctree.Document, error) {
	tree, err := e.DocTree(doc)
	if err != nil {
		return nil, err
	}
	resolved := tree.CloneDocument()
	e.resolve(resolved)
	return resolved, nil
}

func (e *Env) resolve(tree *doctree.Document) {
	from := pagePath(e.builder, tree.DocName)
	doctree.Walk(tree, func(n doctree.Node) bool {
		parent := doctree.ElementOf(n)
		if parent == nil {
			return false
		}
		for i, c := range parent.Nodes {
			x, ok := c.(*doctree.Sourced)
			if !ok || x.Name != "pending_xref" {
				continue
			}
			parent.Nodes[i] = e.resolveXref(from, x)
		}
		return true
	})
}

func (e *Env) resolveXref(from string, x *doctree.Sourced) doctree.Node {
	target := x.Attr("reftarget")
	if _, ok := e.trees[target]; !ok {
		e.warn(fmt.Sprintf("%s:%d: WARNING: unknown document: '%s'", x.Source(), x.Line, target))
		missing := doctree.NewElement("inline", "classes", "xref missing")
		return missing.Append(x.Nodes...)
	}
	uri := relativeURI(e.builder, from, pagePath(e.builder, target))
	if anchor := x.Attr("refanchor"); anchor != "" {
		uri += "#" + anchor
	}
	ref := doctree.NewElement("reference", "internal", "True", "refuri", uri)
	return ref.Append(x.Nodes...)
}

func (e *Env) warn(msg string) {
	e.warnings = append(e.warnings, msg)
	_, _ = fmt.Fprintln(e.warnOut, msg)
}

// title picks the front matter title, then the first section title, then the doc name.
func (e *Env) title(doc string) string {
	if src, ok := e.sources[doc]; ok && src.header.Title != "" {
		return src.header.Title
	}
	if tree, ok := e.trees[doc]; ok {
		for _, c := range tree.Nodes {
			if s, ok := c.(*doctree.Sourced); ok && s.Name == "section" && len(s.Nodes) > 0 {
				return doctree.PlainText(s.Nodes[0])
			}
		}
	}
	return doc
}
