package commands

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/docsnap/internal/logfields"
	"git.home.luguber.info/inful/docsnap/internal/metrics"
	"git.home.luguber.info/inful/docsnap/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	BuildFlags `embed:""`
	SrcDir        string        `arg:"" name:"srcdir" help:"Source directory to watch." type:"existingdir"`
	Debounce      time.Duration `help:"Quiet period before a rebuild." default:"300ms"`
	MetricsListen string        `name:"metrics-listen" help:"Serve Prometheus metrics on this address (defaults to metrics.listen)."`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.settings()
	if err != nil {
		return err
	}
	rec, prom, flush := newRecorder(cfg)
	defer flush()

	ctx := g.Ctx
	if addr := firstNonEmpty(w.MetricsListen, cfg.Metrics.Listen); addr != "" {
		if prom == nil {
			prom = metrics.NewPrometheusRecorder(nil)
			rec = prom
		}
		stop, err := serveMetrics(ctx, addr, prom)
		if err != nil {
			return err
		}
		defer stop()
	}

	rebuild := func(ctx context.Context) error {
		_, err := runBuild(&Global{Ctx: ctx, Out: g.Out, ErrOut: g.ErrOut}, w.BuildFlags, w.SrcDir, cfg, rec)
		return err
	}
	if err := rebuild(ctx); err != nil {
		slog.Warn("Initial build failed", logfields.Error(err))
	}
	return watch.Run(ctx, w.SrcDir, rebuild, watch.Options{
		BuildDir: firstNonEmpty(w.BuildDir, cfg.Sources.BuildDir),
		Debounce: w.Debounce,
	})
}

func serveMetrics(ctx context.Context, addr string, prom *metrics.PrometheusRecorder) (func(), error) {
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(prom.Registry()))
	srv := &http.Server{Handler: mux, ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, IdleTimeout: 120 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server error", logfields.Error(err))
		}
	}()
	slog.Info("Serving metrics", slog.String("addr", ln.Addr().String()))
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
