// Package engine is a small Markdown documentation build engine used as the
// build collaborator of the snapshot harness.
//
// The harness only depends on the Engine and Environment interfaces; this
// package's Markdown implementation renders sources under <srcdir> into
// <srcdir>/_build/<builder>/ and exposes per-document trees.
package engine

import (
	"context"
	"io"
	"log/slog"

	"git.home.luguber.info/inful/docsnap/internal/doctree"
)

// Builder names understood by the Markdown engine.
const (
	BuilderHTML      = "html"
	BuilderDirHTML   = "dirhtml"
	BuilderPseudoXML = "pseudoxml"
)

// DefaultBuildDir is the output directory created below each source directory.
const DefaultBuildDir = "_build"

// Engine builds a documentation project.
type Engine interface {
	Build(ctx context.Context, cfg Config) (Environment, error)
}

// Environment is the state of one finished build.
type Environment interface {
	SrcDir() string
	// OutDir is the build output root; builder output lives in OutDir()/Builder().
	OutDir() string
	Builder() string
	// Docs lists document names in sorted order.
	Docs() []string
	// DocTree returns the document tree as read from the source.
	DocTree(doc string) (*doctree.Document, error)
	// ResolvedDocTree returns the tree with cross-document references
	// replaced by their final targets. It may record warnings on the
	// environment, so repeated calls are not idempotent.
	ResolvedDocTree(doc string) (*doctree.Document, error)
	Warnings() []string
}

// Config describes one build invocation.
type Config struct {
	SrcDir   string
	Builder  string
	BuildDir string
	// Fresh ignores saved state and rewrites every document.
	Fresh bool
	// Overrides replaces keys of the project's conf.yaml.
	Overrides map[string]any
	// Tags enable documents restricted with `only:` front matter.
	Tags []string

	Status  io.Writer
	Warning io.Writer
	Logger  *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.Builder == "" {
		c.Builder = BuilderHTML
	}
	if c.BuildDir == "" {
		c.BuildDir = DefaultBuildDir
	}
	if c.Status == nil {
		c.Status = io.Discard
	}
	if c.Warning == nil {
		c.Warning = io.Discard
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
