// Package metrics records harness observability data: build durations,
// snapshot comparison outcomes and sweep results.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never needs nil checks:
//
//	store := snapshot.NewStore(dir, snapshot.WithRecorder(metrics.NoopRecorder{}))
//
// To collect real data, inject a PrometheusRecorder and export its registry,
// either over HTTP (HTTPHandler) or as a node-exporter textfile
// (WriteTextfile) at the end of a test session.
package metrics
