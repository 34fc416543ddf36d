package commands

import (
	"log/slog"

	"git.home.luguber.info/inful/docsnap/internal/config"
	"git.home.luguber.info/inful/docsnap/internal/logfields"
	"git.home.luguber.info/inful/docsnap/internal/metrics"
)

// newRecorder returns the recorder for one command run and a flush function
// that writes the metrics textfile when one is configured.
func newRecorder(cfg *config.Config) (metrics.Recorder, *metrics.PrometheusRecorder, func()) {
	if cfg.Metrics.Textfile == "" && cfg.Metrics.Listen == "" {
		return metrics.NoopRecorder{}, nil, func() {}
	}
	prom := metrics.NewPrometheusRecorder(nil)
	flush := func() {
		if cfg.Metrics.Textfile == "" {
			return
		}
		if err := prom.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			slog.Warn("Failed to write metrics textfile", logfields.Path(cfg.Metrics.Textfile), logfields.Error(err))
		}
	}
	return prom, prom, flush
}
