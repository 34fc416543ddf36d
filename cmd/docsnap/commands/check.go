package commands

import (
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docsnap/internal/output"
	"git.home.luguber.info/inful/docsnap/internal/snapshot"
	"git.home.luguber.info/inful/docsnap/internal/treesnap"
)

// CheckCmd implements the 'check' command: build, then compare the
// normalized page and the document trees against stored records.
type CheckCmd struct {
	BuildFlags `embed:""`
	SrcDir   string   `arg:"" name:"srcdir" help:"Source directory to build." type:"existingdir"`
	Name     string   `short:"n" help:"Record identity (defaults to the source directory name)."`
	Dir      string   `help:"Snapshot directory (defaults to snapshots.dir)."`
	File     string   `short:"f" name:"file" help:"Page to compare; empty skips the page." default:"index.html"`
	Docs     []string `short:"d" name:"doc" help:"Documents whose trees are compared." default:"index"`
	Resolved bool     `help:"Also compare the resolved trees."`
	Replace  []string `short:"r" help:"Literal FIND=REPLACE applied before comparing, in order (replaces output.replacements)." sep:"none"`
	Update   bool     `short:"u" help:"Overwrite records instead of comparing."`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.settings()
	if err != nil {
		return err
	}
	reps, err := parseReplacements(c.Replace)
	if err != nil {
		return err
	}
	if len(reps) == 0 {
		reps = cfg.Output.ReplacementPairs()
	}
	rec, _, flush := newRecorder(cfg)
	defer flush()

	env, err := runBuild(&Global{Ctx: g.Ctx, Out: io.Discard, ErrOut: g.ErrOut}, c.BuildFlags, c.SrcDir, cfg, rec)
	if err != nil {
		return err
	}

	name := c.Name
	if name == "" {
		abs, _ := filepath.Abs(c.SrcDir)
		name = filepath.Base(abs)
	}
	store := snapshot.NewStore(firstNonEmpty(c.Dir, cfg.Snapshots.Dir),
		snapshot.WithUpdate(c.Update || cfg.Snapshots.Update),
		snapshot.WithRecorder(rec))

	var errs []error
	report := func(label string, outcome snapshot.Outcome, err error) {
		if err != nil {
			errs = append(errs, err)
			_, _ = fmt.Fprintf(g.Out, "FAIL     %s\n", label)
			return
		}
		_, _ = fmt.Fprintf(g.Out, "%-8s %s\n", strings.ToUpper(outcome.String()), label)
	}

	if c.File != "" {
		opts := cfg.Output.ReadOptions(env.Builder())
		opts.Filename = c.File
		opts.Mode = output.ModeHTML
		opts.Replacements = reps
		res, err := output.NewReader(nil).Read(env.OutDir(), opts)
		if err != nil {
			return err
		}
		ext := ".html"
		if c.File != output.DefaultFilename {
			ext = "." + sanitizeExt(c.File)
		}
		outcome, err := store.Check(name, res.Fragment, ext)
		report(store.Path(name, ext), outcome, err)
	}

	variants := []treesnap.Variant{treesnap.Unresolved{}}
	if c.Resolved {
		variants = append(variants, treesnap.Resolved{})
	}
	snapper := treesnap.New(nil)
	for _, doc := range c.Docs {
		identity := name
		if doc != "index" {
			identity = name + "/" + doc
		}
		for _, v := range variants {
			snap, err := snapper.Snapshot(env, doc, v, treesnap.Options{Replacements: reps})
			if err != nil {
				return err
			}
			outcome, err := store.Check(identity, snap.Text, snap.Extension)
			report(store.Path(identity, snap.Extension), outcome, err)
		}
	}
	return stderrors.Join(errs...)
}

// sanitizeExt turns a page path like guide/index.html into guide_index.html.
func sanitizeExt(file string) string {
	return snapshot.Sanitize(filepath.ToSlash(file))
}
