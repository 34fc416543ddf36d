// Package sweep removes transient build output left below fixture source
// directories once a test session ends.
package sweep

import (
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/logfields"
	"git.home.luguber.info/inful/docsnap/internal/metrics"
)

// DefaultBuildDir is the build output directory name swept by default.
const DefaultBuildDir = "_build"

// Report summarizes one sweep.
type Report struct {
	SessionID string
	Root      string
	// Removed lists the build directories that were deleted.
	Removed []string
	// Failed lists build directories that could not be deleted.
	Failed []string
}

type options struct {
	logger    *slog.Logger
	recorder  metrics.Recorder
	sessionID string
	remove    func(string) error
}

// Option configures Sweep.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithSessionID tags the report and log lines with id instead of a fresh UUID.
func WithSessionID(id string) Option {
	return func(o *options) { o.sessionID = id }
}

// Sweep deletes `<entry>/<buildDir>` for every top-level directory entry of
// root that contains one as a directory. Other entries, including a
// regular file or symlink named buildDir, are never touched. Failures do not
// stop the sweep; they are joined into the returned error.
func Sweep(root, buildDir string, opts ...Option) (Report, error) {
	o := options{logger: slog.Default(), recorder: metrics.NoopRecorder{}, remove: os.RemoveAll}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sessionID == "" {
		o.sessionID = uuid.NewString()
	}
	if buildDir == "" {
		buildDir = DefaultBuildDir
	}

	report := Report{SessionID: o.sessionID, Root: root}
	log := o.logger.With(logfields.SessionID(o.sessionID), logfields.Path(root))

	entries, err := os.ReadDir(root)
	if err != nil {
		return report, errors.WrapError(err, errors.CategoryFileSystem, "list sweep root").
			WithContext("path", root).
			Build()
	}

	var errs []error
	for _, entry := range entries {
		dir := filepath.Join(root, entry.Name())
		if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
			continue
		}
		target := filepath.Join(dir, buildDir)
		if fi, err := os.Lstat(target); err != nil || !fi.IsDir() {
			continue
		}
		if err := o.remove(target); err != nil {
			report.Failed = append(report.Failed, target)
			o.recorder.IncSweepResult(metrics.ResultFailed)
			log.Warn("Failed to remove build directory", logfields.Path(target), logfields.Error(err))
			errs = append(errs, errors.WrapError(err, errors.CategoryFileSystem, "remove build directory").
				WithContext("path", target).
				Build())
			continue
		}
		report.Removed = append(report.Removed, target)
		o.recorder.IncSweepResult(metrics.ResultSuccess)
		log.Debug("Removed build directory", logfields.Path(target))
	}

	log.Info("Sweep finished", logfields.Count(len(report.Removed)), slog.Int("failed", len(report.Failed)))
	return report, stderrors.Join(errs...)
}
