// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watcher already running")

// Watcher reports debounced batches of plugin changes under a root directory.
type Watcher struct {
	root     string
	match    matcher
	debounce time.Duration
	onChange func(context.Context, Batch) error
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
	started  atomic.Bool
}

// New validates cfg, creates the root if needed and registers every
// non-ignored directory below it.
func New(cfg Config) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve watch root: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create watch root %s: %w", root, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:     root,
		match:    newMatcher(cfg),
		debounce: cfg.Debounce,
		onChange: cfg.OnChange,
		logger:   cfg.Logger,
		fsw:      fsw,
	}
	if w.debounce == 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}

	if err := w.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Root returns the absolute watched directory.
func (w *Watcher) Root() string { return w.root }

// Run processes events until ctx is done and returns nil on cancellation.
// Batches are delivered one at a time; events arriving while OnChange runs
// are held for the next batch. Run may be called once.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	d := newDebouncer(w.debounce, func(b Batch) { w.deliver(ctx, b) })
	defer func() {
		d.stop()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify watcher", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("fsnotify event channel closed")
			}
			w.handle(evt, d)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("fsnotify error channel closed")
			}
			if isFatalWatchError(err) {
				return fmt.Errorf("watcher exhausted system resources: %w", err)
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) handle(evt fsnotify.Event, d *debouncer) {
	rel, err := filepath.Rel(w.root, evt.Name)
	if err != nil {
		return
	}

	if evt.Has(fsnotify.Create) {
		if info, statErr := os.Stat(evt.Name); statErr == nil && info.IsDir() {
			if !w.match.ignored(rel) {
				if addErr := w.addTree(evt.Name); addErr != nil {
					w.logger.Warn("watch new directory", "path", evt.Name, "error", addErr)
				}
			}
			return
		}
	}

	if !w.match.wanted(rel) {
		return
	}
	removed := evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename)
	w.logger.Debug("plugin changed", "path", rel, "op", evt.Op.String())
	d.add(filepath.ToSlash(rel), removed)
}

func (w *Watcher) deliver(ctx context.Context, b Batch) {
	if ctx.Err() != nil || w.onChange == nil {
		return
	}
	if err := w.onChange(ctx, b); err != nil {
		w.logger.Error("rerun after change failed", "error", err)
	}
}

// addTree registers dir and its non-ignored subdirectories. Unreadable
// subdirectories are skipped with a warning.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("walk %s: %w", path, err)
			}
			w.logger.Warn("skipping unreadable directory", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, relErr := filepath.Rel(w.root, path); relErr == nil && rel != "." && w.match.ignored(rel+"/") {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch %s: %w", path, addErr)
		}
		return nil
	})
}

// debouncer accumulates paths and flushes them once no event arrived for
// the configured quiet period. Flushes never overlap.
type debouncer struct {
	quiet time.Duration
	flush func(Batch)

	mu       sync.Mutex
	pending  map[string]bool // path -> removed
	timer    *time.Timer
	stopped  bool
	flushing sync.Mutex
}

func newDebouncer(quiet time.Duration, flush func(Batch)) *debouncer {
	return &debouncer{quiet: quiet, flush: flush, pending: make(map[string]bool)}
}

func (d *debouncer) add(path string, removed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending[path] = removed
	if d.timer == nil {
		d.timer = time.AfterFunc(d.quiet, d.fire)
		return
	}
	d.timer.Reset(d.quiet)
}

func (d *debouncer) fire() {
	d.flushing.Lock()
	defer d.flushing.Unlock()

	d.mu.Lock()
	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	var b Batch
	for path, removed := range d.pending {
		if removed {
			b.Removed = append(b.Removed, path)
		} else {
			b.Changed = append(b.Changed, path)
		}
	}
	clear(d.pending)
	d.mu.Unlock()

	slices.Sort(b.Changed)
	slices.Sort(b.Removed)
	d.flush(b)
}

// stop cancels any pending flush and waits for a running one to finish.
func (d *debouncer) stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	d.flushing.Lock()
	d.flushing.Unlock() //nolint:staticcheck // wait for an in-flight flush
}
