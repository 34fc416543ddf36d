// Package snapshot stores reference records for normalized build output and
// compares new output against them byte for byte.
package snapshot

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docsnap/internal/foundation/errors"
	"git.home.luguber.info/inful/docsnap/internal/logfields"
	"git.home.luguber.info/inful/docsnap/internal/metrics"
)

// DefaultDir is where records live relative to the test package.
const DefaultDir = "testdata/snapshots"

// Outcome is the result of a successful comparison.
type Outcome int

const (
	// Matched means the record existed and was byte-identical.
	Matched Outcome = iota
	// Created means no record existed and one was written.
	Created
	// Updated means update mode overwrote the record.
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case Created:
		return "created"
	case Updated:
		return "updated"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Store reads and writes records under one directory.
type Store struct {
	dir      string
	update   bool
	logger   *slog.Logger
	recorder metrics.Recorder
}

// Option configures a Store.
type Option func(*Store)

// WithUpdate makes every comparison overwrite its record.
func WithUpdate(update bool) Option {
	return func(s *Store) { s.update = update }
}

// WithLogger sets the logger used for comparison events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewStore creates a store rooted at dir (DefaultDir when empty).
func NewStore(dir string, opts ...Option) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	s := &Store{dir: dir, logger: slog.Default(), recorder: metrics.NoopRecorder{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Dir returns the record directory.
func (s *Store) Dir() string { return s.dir }

// Updating reports whether update mode is on.
func (s *Store) Updating() bool { return s.update }

// Path returns the record file for identity and ext.
func (s *Store) Path(identity, ext string) string {
	return filepath.Join(s.dir, Sanitize(identity)+ext)
}

// Check compares text against the record for (identity, ext). A missing
// record is created; a differing record is a snapshot error wrapping a
// *MismatchError unless update mode is on.
func (s *Store) Check(identity, text, ext string) (Outcome, error) {
	path := s.Path(identity, ext)
	log := s.logger.With(logfields.Snapshot(path), logfields.Extension(ext))

	// #nosec G304 -- record path is derived from the store directory
	existing, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		if err := s.write(path, text); err != nil {
			return s.fail(ext, err)
		}
		log.Info("Created snapshot", logfields.Outcome(Created.String()))
		s.recorder.IncComparison(ext, metrics.ComparisonCreated)
		return Created, nil
	case err != nil:
		return s.fail(ext, errors.WrapError(err, errors.CategoryFileSystem, "read snapshot").
			WithContext("path", path).
			Build())
	}

	if string(existing) == text {
		log.Debug("Snapshot matched", logfields.Outcome(Matched.String()))
		s.recorder.IncComparison(ext, metrics.ComparisonMatched)
		return Matched, nil
	}

	if s.update {
		if err := s.write(path, text); err != nil {
			return s.fail(ext, err)
		}
		log.Info("Updated snapshot", logfields.Outcome(Updated.String()))
		s.recorder.IncComparison(ext, metrics.ComparisonUpdated)
		return Updated, nil
	}

	mismatch := newMismatch(path, string(existing), text)
	log.Warn("Snapshot mismatch", logfields.Outcome("mismatch"), slog.Int("line", mismatch.Line))
	s.recorder.IncComparison(ext, metrics.ComparisonMismatch)
	return Matched, errors.SnapshotError("snapshot mismatch").
		WithCause(mismatch).
		WithContext("path", path).
		WithContext("line", mismatch.Line).
		Build()
}

func (s *Store) fail(ext string, err error) (Outcome, error) {
	s.recorder.IncComparison(ext, metrics.ComparisonError)
	return Matched, err
}

func (s *Store) write(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.FileSystemError("create snapshot directory").WithCause(err).WithContext("path", path).Build()
	}
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return errors.FileSystemError("write snapshot").WithCause(err).WithContext("path", path).Build()
	}
	return nil
}

// Sanitize turns a test identity into a file name: subtest separators and
// every character outside [A-Za-z0-9._-] become '_'. The mapping is not
// injective; "TestA/b_c" and "TestA_b/c" share one record file.
func Sanitize(identity string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		}
		return '_'
	}, identity)
}
