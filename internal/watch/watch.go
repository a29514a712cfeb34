// Package watch re-runs a callback when notes in a vault change.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/amirbrooks/tasker-notes/internal/logger"
	"github.com/amirbrooks/tasker-notes/internal/vault"
)

const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc is called once per burst of note changes, from the goroutine
// running Run.
type ChangeFunc func(ctx context.Context) error

// Watcher watches every non-hidden directory of a vault. Changes to Markdown
// notes are debounced into a single ChangeFunc call.
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange ChangeFunc

	// trigger holds at most one pending burst; Run drains it so callbacks
	// never overlap and never outlive Run.
	trigger chan struct{}

	mu      sync.Mutex
	timer   *time.Timer
	ignored map[string]bool
}

func New(root string, debounce time.Duration, onChange ChangeFunc) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}
	w := &Watcher{
		root:     root,
		watcher:  fw,
		debounce: debounce,
		onChange: onChange,
		trigger:  make(chan struct{}, 1),
		ignored:  map[string]bool{},
	}
	if err := w.addTree(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Ignore stops changes to path from triggering the callback. Used for the
// note the callback itself writes.
func (w *Watcher) Ignore(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ignored[filepath.Clean(path)] = true
}

func (w *Watcher) isIgnored(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ignored[filepath.Clean(path)]
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walk %s", path)
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return errors.Wrapf(err, "watch %s", path)
		}
		logger.Logger.Debugw("watching directory", "path", path)
		return nil
	})
}

// Run processes events until ctx is cancelled. It closes the watcher on
// return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case <-w.trigger:
			if ctx.Err() != nil {
				return nil
			}
			if err := w.onChange(ctx); err != nil {
				logger.Logger.Errorw("change handler failed", "error", err)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Logger.Warnw("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if isHidden(name) {
		return
	}
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				logger.Logger.Warnw("cannot watch new directory", "path", event.Name, "error", err)
			}
			w.schedule()
			return
		}
	}
	if !vault.IsNote(name) {
		return
	}
	if w.isIgnored(event.Name) {
		logger.Logger.Debugw("ignoring own write", "path", event.Name)
		return
	}
	if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) ||
		event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		logger.Logger.Infow("note changed", "path", event.Name, "op", event.Op.String())
		w.schedule()
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.trigger <- struct{}{}:
		default:
		}
	})
}

// Close stops any pending callback and releases the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
