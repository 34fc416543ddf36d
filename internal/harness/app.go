package harness

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"git.home.luguber.info/inful/docsnap/internal/doctree"
	"git.home.luguber.info/inful/docsnap/internal/engine"
	"git.home.luguber.info/inful/docsnap/internal/logfields"
	"git.home.luguber.info/inful/docsnap/internal/metrics"
	"git.home.luguber.info/inful/docsnap/internal/output"
	"git.home.luguber.info/inful/docsnap/internal/snapshot"
	"git.home.luguber.info/inful/docsnap/internal/treesnap"
)

// DefaultTestRoot is the source directory used when neither SrcDir nor
// TestRoot is set.
const DefaultTestRoot = "root"

// Options configure one App.
type Options struct {
	// Builder defaults to the configured builder (html).
	Builder string
	// SrcDir is used as is when set.
	SrcDir string
	// TestRoot names a directory below the configured source root.
	TestRoot string
	// Fresh ignores saved engine state.
	Fresh     bool
	Overrides map[string]any
	Tags      []string

	// Engine defaults to the Markdown reference engine.
	Engine engine.Engine
	// Store overrides the session snapshot store.
	Store *snapshot.Store
}

// App is one engine build under test.
type App struct {
	t       testing.TB
	opts    Options
	session *session
	store   *snapshot.Store
	env     engine.Environment

	// Status and Warning capture the engine's message streams.
	Status  bytes.Buffer
	Warning bytes.Buffer
}

// NewApp prepares an App. The build runs on Build.
func NewApp(t testing.TB, opts Options) *App {
	t.Helper()
	s := currentSession()
	if s.err != nil {
		t.Fatalf("load harness configuration: %v", s.err)
	}
	if opts.Builder == "" {
		opts.Builder = s.cfg.Build.Builder
	}
	if opts.SrcDir == "" {
		root := opts.TestRoot
		if root == "" {
			root = DefaultTestRoot
		}
		opts.SrcDir = filepath.Join(s.cfg.Sources.Root, root)
	}
	if opts.Tags == nil {
		opts.Tags = s.cfg.Build.Tags
	}
	if opts.Overrides == nil {
		opts.Overrides = s.cfg.Build.Overrides
	}
	if opts.Engine == nil {
		opts.Engine = engine.New()
	}
	store := opts.Store
	if store == nil {
		store = s.store()
	}
	return &App{t: t, opts: opts, session: s, store: store}
}

// SrcDir returns the source directory being built.
func (a *App) SrcDir() string { return a.opts.SrcDir }

// Builder returns the builder name.
func (a *App) Builder() string { return a.opts.Builder }

// Build runs the engine and fails the test on error.
func (a *App) Build() engine.Environment {
	a.t.Helper()
	start := time.Now()
	env, err := a.opts.Engine.Build(a.t.Context(), engine.Config{
		SrcDir:    a.opts.SrcDir,
		Builder:   a.opts.Builder,
		BuildDir:  a.session.cfg.Sources.BuildDir,
		Fresh:     a.opts.Fresh || a.session.cfg.Build.Fresh,
		Overrides: a.opts.Overrides,
		Tags:      a.opts.Tags,
		Status:    &a.Status,
		Warning:   &a.Warning,
		Logger:    a.session.logger,
	})
	a.session.recorder.ObserveBuildDuration(a.opts.Builder, time.Since(start))
	if err != nil {
		a.session.recorder.IncBuildOutcome(a.opts.Builder, metrics.ResultFailed)
		a.t.Fatalf("build %s: %v", a.opts.SrcDir, err)
		return nil
	}
	result := metrics.ResultSuccess
	if len(env.Warnings()) > 0 {
		result = metrics.ResultWarning
	}
	a.session.recorder.IncBuildOutcome(a.opts.Builder, result)
	a.env = env
	return env
}

// Env returns the environment of the last Build.
func (a *App) Env() engine.Environment {
	a.t.Helper()
	if a.env == nil {
		a.t.Fatalf("App.Env called before Build")
	}
	return a.env
}

// OutputOptions select an artifact and whether it is compared.
type OutputOptions struct {
	// Builder defaults to the App's builder.
	Builder string
	// Filename defaults to index.html.
	Filename string
	// Encoding defaults to the configured encoding (utf-8).
	Encoding string
	// Regress normalizes the page and compares it against the snapshot.
	Regress bool
	// Ext is the snapshot extension, ".html" when empty.
	Ext          string
	RegionClass  string
	Replacements output.Replacements
}

// Output reads an artifact of the last build and returns its decoded
// content. With Regress, the normalized fragment is checked against the
// test's snapshot; a mismatch fails the test without stopping it.
func (a *App) Output(opts OutputOptions) string {
	a.t.Helper()
	env := a.Env()

	ro := a.session.cfg.Output.ReadOptions(a.opts.Builder)
	ro.Mode = output.ModeRaw
	if opts.Builder != "" {
		ro.Builder = opts.Builder
	}
	ro.Filename = opts.Filename
	if opts.Encoding != "" {
		ro.Encoding = opts.Encoding
	}
	if opts.RegionClass != "" {
		ro.RegionClass = opts.RegionClass
	}
	if opts.Replacements != nil {
		ro.Replacements = opts.Replacements
	}
	if opts.Regress {
		ro.Mode = output.ModeHTML
	}

	res, err := output.NewReader(a.session.logger).Read(env.OutDir(), ro)
	if err != nil {
		a.t.Fatalf("read output: %v", err)
		return ""
	}
	if opts.Regress {
		ext := opts.Ext
		if ext == "" {
			ext = ".html"
		}
		snapshot.NewChecker(a.t, a.store).Check(res.Fragment, ext)
	}
	return res.Content
}

// DocTreeOptions select a document tree and whether it is compared.
type DocTreeOptions struct {
	// Doc defaults to "index".
	Doc string
	// Resolve snapshots the tree after cross-reference resolution.
	Resolve bool
	// Regress compares the serialized tree against the snapshot.
	Regress bool
	// Ext is the base snapshot extension, ".xml" when empty.
	Ext string
	// Replacements default to the configured output replacements.
	Replacements output.Replacements
}

// DocTree returns a copy of the document tree with source paths reduced to
// base names. With Regress, its serialized form is checked against the
// test's snapshot.
func (a *App) DocTree(opts DocTreeOptions) *doctree.Document {
	a.t.Helper()
	doc := opts.Doc
	if doc == "" {
		doc = "index"
	}
	reps := opts.Replacements
	if reps == nil {
		reps = a.session.cfg.Output.ReplacementPairs()
	}
	snap, err := treesnap.New(a.session.logger).Snapshot(a.Env(), doc, treesnap.VariantOf(opts.Resolve), treesnap.Options{
		Extension:    opts.Ext,
		Replacements: reps,
	})
	if err != nil {
		a.t.Fatalf("doctree %s: %v", doc, err)
		return nil
	}
	if opts.Regress {
		snapshot.NewChecker(a.t, a.store).Check(snap.Text, snap.Extension)
	}
	a.session.logger.Debug("Fetched document tree", logfields.Doc(doc), logfields.Extension(snap.Extension))
	return snap.Tree
}
