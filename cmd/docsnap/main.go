package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docsnap/cmd/docsnap/commands"
	"git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

func main() {
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("docsnap"),
		kong.Description("Build documentation sources and compare the output against stored snapshots."),
		kong.UsageOnError(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := parser.Run(&commands.Global{Ctx: ctx, Out: os.Stdout, ErrOut: os.Stderr}, &cli)
	cancel()
	if err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
