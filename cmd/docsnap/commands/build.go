package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	BuildFlags `embed:""`
	SrcDir           string `arg:"" name:"srcdir" help:"Source directory containing conf.yaml and Markdown sources." type:"existingdir"`
	WarningsAsErrors bool   `short:"W" name:"warnings-as-errors" help:"Fail when the build reports warnings."`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.settings()
	if err != nil {
		return err
	}
	rec, _, flush := newRecorder(cfg)
	defer flush()

	env, err := runBuild(g, b.BuildFlags, b.SrcDir, cfg, rec)
	if err != nil {
		return err
	}
	if b.WarningsAsErrors && len(env.Warnings()) > 0 {
		return errors.BuildError(fmt.Sprintf("build reported %d warning(s)", len(env.Warnings()))).
			WithContext("srcdir", env.SrcDir()).
			Build()
	}
	return nil
}
