package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"git.home.luguber.info/inful/docsnap/internal/output"
)

// ReadCmd implements the 'read' command.
type ReadCmd struct {
	BuildFlags `embed:""`
	SrcDir      string   `arg:"" name:"srcdir" help:"Source directory whose build output is read." type:"existingdir"`
	File        string   `short:"f" name:"file" help:"Artifact path below the builder directory." default:"index.html"`
	Encoding    string   `short:"e" help:"Encoding of the artifact (WHATWG label)."`
	Mode        string   `short:"m" help:"raw prints the decoded artifact, html the normalized fragment."`
	RegionClass string   `name:"region-class" help:"Class of the element kept by html mode."`
	Replace     []string `short:"r" help:"Literal FIND=REPLACE applied to the fragment, in order." sep:"none"`
	Build       bool     `help:"Build before reading."`
}

func (r *ReadCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.settings()
	if err != nil {
		return err
	}
	builder := firstNonEmpty(r.Builder, cfg.Build.Builder)
	opts := cfg.Output.ReadOptions(builder)
	opts.Filename = r.File
	if r.Encoding != "" {
		opts.Encoding = r.Encoding
	}
	if r.Mode != "" {
		if opts.Mode, err = output.ParseMode(r.Mode); err != nil {
			return err
		}
	}
	if r.RegionClass != "" {
		opts.RegionClass = r.RegionClass
	}
	if len(r.Replace) > 0 {
		if opts.Replacements, err = parseReplacements(r.Replace); err != nil {
			return err
		}
	}

	outDir := filepath.Join(r.SrcDir, firstNonEmpty(r.BuildDir, cfg.Sources.BuildDir))
	if r.Build {
		rec, _, flush := newRecorder(cfg)
		defer flush()
		env, err := runBuild(&Global{Ctx: g.Ctx, Out: io.Discard, ErrOut: g.ErrOut}, r.BuildFlags, r.SrcDir, cfg, rec)
		if err != nil {
			return err
		}
		outDir = env.OutDir()
	}

	res, err := output.NewReader(nil).Read(outDir, opts)
	if err != nil {
		return err
	}
	if opts.Mode == output.ModeHTML {
		_, err = fmt.Fprint(g.Out, res.Fragment)
	} else {
		_, err = fmt.Fprint(g.Out, res.Content)
	}
	return err
}
