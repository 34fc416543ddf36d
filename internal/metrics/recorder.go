package metrics

import "time"

// ComparisonLabel enumerates snapshot comparison outcomes.
type ComparisonLabel string

const (
	ComparisonCreated  ComparisonLabel = "created"
	ComparisonMatched  ComparisonLabel = "matched"
	ComparisonUpdated  ComparisonLabel = "updated"
	ComparisonMismatch ComparisonLabel = "mismatch"
	ComparisonError    ComparisonLabel = "error"
)

// ResultLabel enumerates success/failure results for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultWarning ResultLabel = "warning"
	ResultFailed  ResultLabel = "failed"
)

// Recorder defines observability hooks for the harness. Implementations may
// forward to Prometheus or any other backend.
type Recorder interface {
	ObserveBuildDuration(builder string, d time.Duration)
	IncBuildOutcome(builder string, result ResultLabel)
	IncComparison(ext string, outcome ComparisonLabel)
	IncSweepResult(result ResultLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(string, time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string, ResultLabel)        {}
func (NoopRecorder) IncComparison(string, ComparisonLabel)      {}
func (NoopRecorder) IncSweepResult(ResultLabel)                 {}
