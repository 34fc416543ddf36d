// Package harness provides test fixtures that build documentation sources,
// read their output and compare it against stored snapshots.
//
// A test package wires the session in TestMain:
//
//	func TestMain(m *testing.M) {
//		os.Exit(harness.RunSession(m, "testdata/sourcedirs"))
//	}
//
// and each test creates an App:
//
//	app := harness.NewApp(t, harness.Options{TestRoot: "basic"})
//	app.Build()
//	app.Output(harness.OutputOptions{Regress: true})
package harness

import (
	"flag"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docsnap/internal/config"
	"git.home.luguber.info/inful/docsnap/internal/logfields"
	"git.home.luguber.info/inful/docsnap/internal/metrics"
	"git.home.luguber.info/inful/docsnap/internal/snapshot"
	"git.home.luguber.info/inful/docsnap/internal/sweep"
)

var updateSnapshots = flag.Bool("update-snapshots", false, "Regenerate snapshot records instead of comparing")

// session is the state shared by every App of one test binary.
type session struct {
	id       string
	cfg      *config.Config
	logger   *slog.Logger
	recorder metrics.Recorder
	prom     *metrics.PrometheusRecorder
	err      error
}

var (
	sessionOnce sync.Once
	current     *session
)

func currentSession() *session {
	sessionOnce.Do(func() {
		current = newSession()
	})
	return current
}

func newSession() *session {
	s := &session{id: uuid.NewString(), recorder: metrics.NoopRecorder{}}
	cfg, err := config.Load("")
	if err != nil {
		s.err = err
		cfg = config.Default()
	}
	s.cfg = cfg
	s.logger = cfg.Logging.NewLogger(os.Stderr, false).With(logfields.SessionID(s.id))
	if cfg.Metrics.Textfile != "" {
		s.prom = metrics.NewPrometheusRecorder(nil)
		s.recorder = s.prom
	}
	return s
}

func (s *session) update() bool {
	return *updateSnapshots || s.cfg.Snapshots.Update
}

func (s *session) store() *snapshot.Store {
	return snapshot.NewStore(s.cfg.Snapshots.Dir,
		snapshot.WithUpdate(s.update()),
		snapshot.WithLogger(s.logger),
		snapshot.WithRecorder(s.recorder))
}

// Runner is satisfied by *testing.M.
type Runner interface {
	Run() int
}

// RunSession runs the tests and then sweeps build output below root (the
// configured source root when empty). The sweep runs even if the run panics
// and never changes the returned exit code.
func RunSession(m Runner, root string) int {
	s := currentSession()
	if root == "" {
		root = s.cfg.Sources.Root
	}
	defer s.finish(root)
	return m.Run()
}

func (s *session) finish(root string) {
	_, err := sweep.Sweep(root, s.cfg.Sources.BuildDir,
		sweep.WithLogger(s.logger),
		sweep.WithRecorder(s.recorder),
		sweep.WithSessionID(s.id))
	if err != nil {
		s.logger.Warn("Teardown sweep incomplete", logfields.Error(err))
	}
	if s.prom != nil {
		if err := s.prom.WriteTextfile(s.cfg.Metrics.Textfile); err != nil {
			s.logger.Warn("Failed to write metrics textfile", logfields.Path(s.cfg.Metrics.Textfile), logfields.Error(err))
		}
	}
}
