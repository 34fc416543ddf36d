package engine

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/inful/mdfp"
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/docsnap/internal/doctree"
	"git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/logfields"
)

// Markdown is the reference Engine over Markdown sources.
type Markdown struct {
	now func() time.Time
}

// New creates a Markdown engine.
func New() *Markdown {
	return &Markdown{now: time.Now}
}

var _ Engine = (*Markdown)(nil)

// Build reads every source, writes builder output for outdated documents
// and returns the resulting environment.
func (m *Markdown) Build(ctx context.Context, cfg Config) (Environment, error) {
	cfg = cfg.withDefaults()
	switch cfg.Builder {
	case BuilderHTML, BuilderDirHTML, BuilderPseudoXML:
	default:
		return nil, errors.EngineError("unknown builder").Fatal().WithContext("builder", cfg.Builder).Build()
	}

	srcDir, err := filepath.Abs(cfg.SrcDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "resolve source directory").Build()
	}
	if fi, err := os.Stat(srcDir); err != nil || !fi.IsDir() {
		return nil, errors.NotFoundError("source directory does not exist").WithContext("path", srcDir).Build()
	}

	start := m.now()
	log := cfg.Logger.With(logfields.Builder(cfg.Builder), logfields.Path(srcDir))
	status := cfg.Status

	project, merged, err := LoadProject(srcDir, cfg.Overrides)
	if err != nil {
		return nil, err
	}
	_, _ = fmt.Fprintf(status, "Running docsnap engine\nloading project %q from %s\n", project.Name, srcDir)

	sources, err := discoverSources(srcDir, cfg.BuildDir, cfg.Tags)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryEngine, "discover sources").Build()
	}

	env := newEnv(srcDir, filepath.Join(srcDir, cfg.BuildDir), cfg.Builder, project, cfg.Warning)
	md := newMarkdown(project.HighlightEnabled())
	asts := make(map[string]gmast.Node, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapError(err, errors.CategoryEngine, "build canceled").Build()
		}
		root := md.Parser().Parse(text.NewReader(src.body))
		asts[src.name] = root
		env.add(src, (&treeBuilder{src: src}).build(root))
	}

	state := buildState{Builders: map[string]builderState{}}
	if !cfg.Fresh {
		state = loadState(env.outDir)
	}
	prev := state.Builders[cfg.Builder]
	configFP := mdfp.CalculateFingerprintFromParts(string(merged), strings.Join(cfg.Tags, ","))
	sameDocs := sameKeys(prev.Docs, env.docs)

	next := builderState{Config: configFP, Docs: map[string]string{}}
	var outdated []*source
	for _, src := range sources {
		next.Docs[src.name] = src.fingerprint
		out := filepath.Join(env.BuilderDir(), filepath.FromSlash(pagePath(cfg.Builder, src.name)))
		if _, err := os.Stat(out); err != nil || prev.outdated(src.name, src.fingerprint, configFP, sameDocs) {
			outdated = append(outdated, src)
		}
	}
	_, _ = fmt.Fprintf(status, "building [%s]: %d source files out of date\n", cfg.Builder, len(outdated))

	builtAt := m.now()
	for _, src := range outdated {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapError(err, errors.CategoryEngine, "build canceled").Build()
		}
		_, _ = fmt.Fprintf(status, "writing output... [%s] %s\n", cfg.Builder, src.name)
		if err := env.write(md, src, asts[src.name], builtAt); err != nil {
			return nil, err
		}
	}

	state.Builders[cfg.Builder] = next
	if err := saveState(env.outDir, state); err != nil {
		log.Warn("Failed to persist build state", logfields.Error(err))
	}

	if n := len(env.warnings); n > 0 {
		plural := "s"
		if n == 1 {
			plural = ""
		}
		_, _ = fmt.Fprintf(status, "build succeeded, %d warning%s.\n", n, plural)
	} else {
		_, _ = fmt.Fprintln(status, "build succeeded.")
	}
	log.Info("Build finished",
		logfields.Count(len(outdated)),
		logfields.DurationMS(float64(m.now().Sub(start).Microseconds())/1000))
	return env, nil
}

// write renders one document for the environment's builder.
func (e *Env) write(md goldmark.Markdown, src *source, root gmast.Node, builtAt time.Time) error {
	page := pagePath(e.builder, src.name)
	out := filepath.Join(e.BuilderDir(), filepath.FromSlash(page))
	if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create output directory").WithContext("path", out).Build()
	}

	var data []byte
	if e.builder == BuilderPseudoXML {
		data = []byte(doctree.PFormat(e.trees[src.name]))
	} else {
		e.rewriteLinks(src, root)
		var body bytes.Buffer
		if err := md.Renderer().Render(&body, src.body, root); err != nil {
			return errors.WrapError(err, errors.CategoryEngine, "render document").WithContext("doc", src.name).Build()
		}
		rendered, err := renderPage(pageData{
			Title:     e.title(src.name),
			Project:   e.project.Name,
			RootURI:   relativeURI(e.builder, page, pagePath(e.builder, e.project.RootDoc)),
			// #nosec G203 -- body is rendered by goldmark from project sources
			Body:      template.HTML(body.String()),
			Source:    src.path,
			Copyright: e.project.Copyright,
		}, e.project.OutputEncoding, builtAt)
		if err != nil {
			return err
		}
		data = rendered
	}

	if err := os.WriteFile(out, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write output").WithContext("path", out).Build()
	}
	return nil
}

// rewriteLinks points links to other documents at their output pages.
// Unknown targets are left untouched and reported as warnings.
func (e *Env) rewriteLinks(src *source, root gmast.Node) {
	page := pagePath(e.builder, src.name)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		link, ok := n.(*gmast.Link)
		if !entering || !ok {
			return gmast.WalkContinue, nil
		}
		target, anchor, ok := internalTarget(src.name, string(link.Destination))
		if !ok {
			return gmast.WalkContinue, nil
		}
		if _, known := e.trees[target]; !known {
			e.warn(fmt.Sprintf("%s:%d: WARNING: unknown document: '%s'", src.path, (&treeBuilder{src: src}).lineOf(link), target))
			return gmast.WalkContinue, nil
		}
		uri := relativeURI(e.builder, page, pagePath(e.builder, target))
		if anchor != "" {
			uri += "#" + anchor
		}
		link.Destination = []byte(uri)
		return gmast.WalkContinue, nil
	})
}
