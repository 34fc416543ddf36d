// Package commands implements the docsnap CLI subcommands.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"git.home.luguber.info/inful/docsnap/internal/config"
	"git.home.luguber.info/inful/docsnap/internal/engine"
	"git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/metrics"
	"git.home.luguber.info/inful/docsnap/internal/output"
)

// Global carries process-wide state into subcommands.
type Global struct {
	Ctx    context.Context
	Out    io.Writer
	ErrOut io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string `short:"c" help:"Harness configuration file (docsnap.yaml is used when present)."`
	Verbose bool   `short:"v" help:"Enable verbose logging."`

	Build   BuildCmd   `cmd:"" help:"Build a source directory with the reference engine."`
	Read    ReadCmd    `cmd:"" help:"Print a build artifact, optionally normalized."`
	Tree    TreeCmd    `cmd:"" help:"Print the normalized document tree of one document."`
	Check   CheckCmd   `cmd:"" help:"Build a source directory and compare its output against snapshots."`
	Sweep   SweepCmd   `cmd:"" help:"Remove build output below every source directory of a root."`
	Watch   WatchCmd   `cmd:"" help:"Rebuild a source directory whenever it changes."`
	Version VersionCmd `cmd:"" help:"Show version information."`

	cfg *config.Config
}

// AfterApply runs after flag parsing; it sets up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// settings loads the harness configuration and switches the default logger
// to the configured level and format.
func (c *CLI) settings() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(cfg.Logging.NewLogger(os.Stderr, c.Verbose))
	c.cfg = cfg
	return cfg, nil
}

// BuildFlags are shared by every command that runs the engine.
type BuildFlags struct {
	Builder  string            `short:"b" help:"Builder to run (html, dirhtml, pseudoxml)."`
	Fresh    bool              `short:"E" help:"Ignore saved build state and rewrite every document."`
	Tags     []string          `short:"t" name:"tag" help:"Enable documents restricted with 'only:' front matter."`
	Defines  map[string]string `short:"D" name:"define" help:"Override a conf.yaml setting (key=value)."`
	BuildDir string            `name:"build-dir" help:"Build output directory below the source directory."`
}

func (f BuildFlags) engineConfig(srcDir string, cfg *config.Config, status, warning io.Writer) engine.Config {
	ec := engine.Config{
		SrcDir:    srcDir,
		Builder:   firstNonEmpty(f.Builder, cfg.Build.Builder),
		BuildDir:  firstNonEmpty(f.BuildDir, cfg.Sources.BuildDir),
		Fresh:     f.Fresh || cfg.Build.Fresh,
		Tags:      cfg.Build.Tags,
		Overrides: cfg.Build.Overrides,
		Status:    status,
		Warning:   warning,
		Logger:    slog.Default(),
	}
	if len(f.Tags) > 0 {
		ec.Tags = f.Tags
	}
	if len(f.Defines) > 0 {
		ec.Overrides = map[string]any{}
		for k, v := range cfg.Build.Overrides {
			ec.Overrides[k] = v
		}
		for k, v := range f.Defines {
			ec.Overrides[k] = v
		}
	}
	return ec
}

// runBuild builds srcDir and records the build in rec.
func runBuild(g *Global, f BuildFlags, srcDir string, cfg *config.Config, rec metrics.Recorder) (engine.Environment, error) {
	ec := f.engineConfig(srcDir, cfg, g.Out, g.ErrOut)
	start := time.Now()
	env, err := engine.New().Build(g.Ctx, ec)
	rec.ObserveBuildDuration(ec.Builder, time.Since(start))
	if err != nil {
		rec.IncBuildOutcome(ec.Builder, metrics.ResultFailed)
		return nil, err
	}
	if len(env.Warnings()) > 0 {
		rec.IncBuildOutcome(ec.Builder, metrics.ResultWarning)
	} else {
		rec.IncBuildOutcome(ec.Builder, metrics.ResultSuccess)
	}
	return env, nil
}

// parseReplacements reads FIND=REPLACE pairs; only the first '=' separates.
func parseReplacements(pairs []string) (output.Replacements, error) {
	out := make(output.Replacements, 0, len(pairs))
	for _, p := range pairs {
		find, rep, ok := strings.Cut(p, "=")
		if !ok || find == "" {
			return nil, errors.ValidationError("replacement must be FIND=REPLACE").WithContext("value", p).Build()
		}
		out = append(out, output.Replacement{Find: find, Replace: rep})
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
