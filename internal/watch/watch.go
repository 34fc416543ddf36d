// Package watch rebuilds a source directory whenever its files change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docsnap/internal/logfields"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// Options configure Run.
type Options struct {
	// BuildDir is skipped so build output does not retrigger builds.
	BuildDir string
	Debounce time.Duration
	Logger   *slog.Logger
}

// Run watches root recursively and calls rebuild after each burst of
// changes. Rebuilds never overlap; changes during a rebuild schedule one
// more. Run returns when ctx is canceled or the watcher closes.
func Run(ctx context.Context, root string, rebuild func(context.Context) error, opts Options) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	log := opts.Logger.With(logfields.Path(root))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	addDirsRecursive(watcher, root, opts.BuildDir, log)
	return run(ctx, watcher, root, rebuild, opts, log)
}

// run drives the debouncer and the rebuild worker from watcher's events.
// The worker is stopped before run returns, whichever side ends first.
func run(ctx context.Context, watcher *fsnotify.Watcher, root string, rebuild func(context.Context) error, opts Options, log *slog.Logger) error {
	rebuildReq, trigger, stop := newDebouncer(opts.Debounce)
	defer stop()

	workerCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker(workerCtx, rebuildReq, rebuild, log)
	}()
	defer wg.Wait()
	defer cancel()

	return loop(ctx, watcher, root, opts.BuildDir, trigger, log)
}

// loop forwards relevant filesystem events to trigger until ctx is done or
// the watcher's channels close.
func loop(ctx context.Context, watcher *fsnotify.Watcher, root, buildDir string, trigger func(), log *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ignored(root, ev.Name, buildDir) {
				continue
			}
			if ev.Op&fsnotify.Create == fsnotify.Create {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					addDirsRecursive(watcher, ev.Name, buildDir, log)
				}
			}
			log.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// newDebouncer returns a request channel, a trigger that fires it after
// delay of inactivity, and a stop function.
func newDebouncer(delay time.Duration) (<-chan struct{}, func(), func()) {
	var mu sync.Mutex
	var timer *time.Timer
	req := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			select {
			case req <- struct{}{}:
			default:
			}
		})
	}
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	return req, trigger, stop
}

// worker runs rebuilds one at a time. The request channel has capacity one,
// so changes arriving during a rebuild collapse into a single follow-up.
func worker(ctx context.Context, req <-chan struct{}, rebuild func(context.Context) error, log *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-req:
			start := time.Now()
			log.Info("Change detected; rebuilding")
			if err := rebuild(ctx); err != nil {
				log.Warn("Rebuild failed", logfields.Error(err))
				continue
			}
			log.Info("Rebuild finished", logfields.DurationMS(float64(time.Since(start).Milliseconds())))
		}
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root, buildDir string, log *slog.Logger) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && (d.Name() == buildDir || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			log.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// ignored reports events that must not trigger a rebuild: build output,
// hidden files and editor temporaries.
func ignored(root, path, buildDir string) bool {
	if rel, err := filepath.Rel(root, path); err == nil && buildDir != "" {
		first := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
		if first == buildDir {
			return true
		}
	}
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}
