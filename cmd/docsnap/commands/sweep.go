package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docsnap/internal/sweep"
)

// SweepCmd implements the 'sweep' command.
type SweepCmd struct {
	Root     string `arg:"" optional:"" help:"Directory whose subdirectories are swept (defaults to sources.root)."`
	BuildDir string `name:"build-dir" help:"Build output directory name (defaults to sources.build_dir)."`
}

func (s *SweepCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.settings()
	if err != nil {
		return err
	}
	rec, _, flush := newRecorder(cfg)
	defer flush()

	report, err := sweep.Sweep(firstNonEmpty(s.Root, cfg.Sources.Root), firstNonEmpty(s.BuildDir, cfg.Sources.BuildDir),
		sweep.WithRecorder(rec))
	for _, p := range report.Removed {
		_, _ = fmt.Fprintf(g.Out, "removed %s\n", p)
	}
	for _, p := range report.Failed {
		_, _ = fmt.Fprintf(g.Out, "failed  %s\n", p)
	}
	return err
}
