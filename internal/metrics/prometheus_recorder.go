package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "docsnap"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	registry      *prom.Registry
	buildDuration *prom.HistogramVec
	buildOutcome  *prom.CounterVec
	comparisons   *prom.CounterVec
	sweepResults  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.once.Do(func() {
		pr.buildDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Engine build duration by builder",
			Buckets:   prom.DefBuckets,
		}, []string{"builder"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Engine build outcomes by builder and result",
		}, []string{"builder", "result"})
		pr.comparisons = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_comparisons_total",
			Help:      "Snapshot comparisons by record extension and outcome",
		}, []string{"extension", "outcome"})
		pr.sweepResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_removals_total",
			Help:      "Build directory removals by result",
		}, []string{"result"})
		reg.MustRegister(pr.buildDuration, pr.buildOutcome, pr.comparisons, pr.sweepResults)
	})
	return pr
}

// Registry returns the registry the metrics are registered with.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.registry }

func (p *PrometheusRecorder) ObserveBuildDuration(builder string, d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.WithLabelValues(builder).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(builder string, result ResultLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(builder, string(result)).Inc()
}

func (p *PrometheusRecorder) IncComparison(ext string, outcome ComparisonLabel) {
	if p == nil || p.comparisons == nil {
		return
	}
	p.comparisons.WithLabelValues(ext, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncSweepResult(result ResultLabel) {
	if p == nil || p.sweepResults == nil {
		return
	}
	p.sweepResults.WithLabelValues(string(result)).Inc()
}

// WriteTextfile writes the registry in the text exposition format, for the
// node exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.registry)
}
