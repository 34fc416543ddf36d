package commands

import (
	"fmt"
	"io"

	"git.home.luguber.info/inful/docsnap/internal/treesnap"
)

// TreeCmd implements the 'tree' command. Trees only exist in memory, so the
// source directory is always built first.
type TreeCmd struct {
	BuildFlags `embed:""`
	SrcDir  string   `arg:"" name:"srcdir" help:"Source directory to build." type:"existingdir"`
	Doc     string   `short:"d" help:"Document name." default:"index"`
	Resolve bool     `help:"Print the tree after cross-reference resolution."`
	Replace []string `short:"r" help:"Literal FIND=REPLACE applied to the tree text, in order." sep:"none"`
}

func (c *TreeCmd) Run(g *Global, root *CLI) error {
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
	snap, err := treesnap.New(nil).Snapshot(env, c.Doc, treesnap.VariantOf(c.Resolve), treesnap.Options{Replacements: reps})
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(g.Out, snap.Text)
	return err
}
