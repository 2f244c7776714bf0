// Package watcher triggers re-exploration when files under the root change.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long events must settle before a rescan fires.
const DefaultDebounce = 500 * time.Millisecond

// Watcher recursively watches a directory tree, skipping ignored directory
// names, and coalesces bursts of events into single change notifications.
type Watcher struct {
	root     string
	ignored  map[string]bool
	debounce time.Duration
	logger   *slog.Logger
	fw       *fsnotify.Watcher
}

// New builds a Watcher over root. Ignored directory names are excluded the
// same way the walker excludes them.
func New(root string, ignoreDirs []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		root:     root,
		ignored:  make(map[string]bool, len(ignoreDirs)),
		debounce: debounce,
		logger:   logger,
		fw:       fw,
	}
	for _, d := range ignoreDirs {
		w.ignored[d] = true
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && w.ignored[d.Name()] {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
	if err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Run blocks, invoking onChange after each settled burst of events, until
// ctx is done or the event stream closes.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() && !w.ignored[filepath.Base(ev.Name)] {
					if err := w.fw.Add(ev.Name); err != nil {
						w.logger.Debug("watch add", "path", ev.Name, "error", err)
					}
				}
			}
			settle = time.After(w.debounce)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		case <-settle:
			settle = nil
			onChange()
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fw.Close()
}
