package bank

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of writes from editors.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports edited sketch files under a bank directory.
type Watcher struct {
	dir      string
	debounce time.Duration
	onChange func(ref string)
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	stopped bool
}

// NewWatcher creates a watcher for dir. onChange receives each changed
// sketch as a slash-separated path relative to dir.
func NewWatcher(dir string, onChange func(ref string), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		dir:      dir,
		debounce: DefaultDebounce,
		onChange: onChange,
		logger:   logger,
		pending:  make(map[string]struct{}),
	}
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()
	defer w.stop()

	if err := watchDirRecursive(watcher, w.dir); err != nil {
		w.logger.Error("failed to watch bank directory", "dir", w.dir, "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if err := watchDirRecursive(watcher, event.Name); err == nil {
					continue
				}
			}
			if !IsSketchFile(event.Name) {
				continue
			}
			rel, err := filepath.Rel(w.dir, event.Name)
			if err != nil {
				continue
			}
			w.schedule(filepath.ToSlash(rel))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule(ref string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.pending[ref] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	refs := make([]string, 0, len(w.pending))
	for ref := range w.pending {
		refs = append(refs, ref)
	}
	clear(w.pending)
	w.mu.Unlock()

	for _, ref := range refs {
		w.logger.Debug("sketch changed", "ref", ref)
		w.onChange(ref)
	}
}

func (w *Watcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
// It fails for paths that are not directories.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if path == dir {
				return fs.ErrInvalid
			}
			return nil
		}
		return watcher.Add(path)
	})
}
