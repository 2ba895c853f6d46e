// Package watch re-runs a callback whenever a script file changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to a single file. The parent directory is watched
// so that editors which save by rename are still seen.
type Watcher struct {
	path     string
	onChange func(path string)
	log      *zap.Logger
	fs       *fsnotify.Watcher

	Debounce time.Duration
}

// New watches path and calls onChange after each change settles.
func New(path string, onChange func(path string), log *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return &Watcher{path: abs, onChange: onChange, log: log, fs: fsw, Debounce: DefaultDebounce}, nil
}

// Run dispatches change notifications until ctx is done. It closes the
// underlying watcher before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case e, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != w.path {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Debug("script changed", zap.String("path", e.Name), zap.Stringer("op", e.Op))
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.onChange(w.path)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch error", zap.Error(err))

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		}
	}
}
