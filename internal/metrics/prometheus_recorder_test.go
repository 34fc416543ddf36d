package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveBuildDuration("html", 150*time.Millisecond)
	pr.IncBuildOutcome("html", ResultSuccess)
	pr.IncComparison(".html", ComparisonCreated)
	pr.IncComparison(".html", ComparisonMatched)
	pr.IncComparison(".html", ComparisonMatched)
	pr.IncSweepResult(ResultSuccess)

	require.InDelta(t, 2, testutil.ToFloat64(pr.comparisons.WithLabelValues(".html", "matched")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(pr.sweepResults.WithLabelValues("success")), 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 4)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncComparison(".xml", ComparisonMismatch)
	pr.IncSweepResult(ResultFailed)
	pr.ObserveBuildDuration("html", time.Second)
	pr.IncBuildOutcome("html", ResultFailed)
}

func TestPrometheusRecorder_WriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncComparison(".xml", ComparisonMismatch)

	path := filepath.Join(t.TempDir(), "docsnap.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `docsnap_snapshot_comparisons_total{extension=".xml",outcome="mismatch"} 1`)
}

func TestHTTPHandler(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncSweepResult(ResultFailed)

	rec := httptest.NewRecorder()
	HTTPHandler(pr.Registry()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `docsnap_sweep_removals_total{result="failed"} 1`)
}
