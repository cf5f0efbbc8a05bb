package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

const defaultDebounce = 300 * time.Millisecond

// RebuildFunc runs a build in response to content changes.
type RebuildFunc func(ctx context.Context) error

// Config controls the content watcher.
type Config struct {
	// Dirs are the directory trees to watch recursively.
	Dirs []string
	// Debounce coalesces bursts of filesystem events into one rebuild.
	Debounce time.Duration
}

// Option configures optional Watcher behaviour.
type Option func(*Watcher)

// WithLogger injects the watcher logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Watcher rebuilds the site when watched files change.
type Watcher struct {
	cfg     Config
	rebuild RebuildFunc
	logger  interfaces.Logger
	fsw     *fsnotify.Watcher
}

// New creates a watcher over the configured directories.
func New(cfg Config, rebuild RebuildFunc, opts ...Option) (*Watcher, error) {
	if rebuild == nil {
		return nil, errors.New("watch: rebuild function is required")
	}
	if len(cfg.Dirs) == 0 {
		return nil, errors.New("watch: at least one directory is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}

	w := &Watcher{
		cfg:     cfg,
		rebuild: rebuild,
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run blocks watching for changes until the context is cancelled. A build
// failure is logged and the watch continues; authors fix the file and save
// again.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()
	w.fsw = fsw

	for _, dir := range w.cfg.Dirs {
		if err := w.addRecursive(dir); err != nil {
			return err
		}
	}
	w.logger.Info("watching for changes",
		"dirs", strings.Join(w.cfg.Dirs, ","),
		"debounce", w.cfg.Debounce.String(),
	)

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	pending := map[string]struct{}{}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			// New directories need their own watch before files inside
			// them emit events.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.cfg.Debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.cfg.Debounce)
			}
			timerCh = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-timerCh:
			timerCh = nil
			changed := len(pending)
			pending = map[string]struct{}{}

			w.logger.Info("content changed, rebuilding", "files", changed)
			started := time.Now()
			if err := w.rebuild(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger.Error("rebuild failed", "error", err)
				continue
			}
			w.logger.Info("rebuild complete", "duration", time.Since(started).String())
		}
	}
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") && path != root {
			return fs.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// relevant filters out editor noise: chmod-only events and temp or hidden
// files that editors write during atomic saves.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	if strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp") || strings.HasSuffix(name, ".tmp") {
		return false
	}
	return true
}
