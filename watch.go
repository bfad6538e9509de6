package appregistry

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads the registry when any of a set of files changes, such as
// the bundled defaults or a file-backed override store.
//
// Parent directories are watched rather than the files themselves so that
// editors which replace files by rename are followed.
type Watcher struct {
	reload   func(ctx context.Context) bool
	files    map[string]struct{}
	dirs     []string
	debounce time.Duration
	logger   *slog.Logger

	// OnReload, if set, is called after every triggered reload.
	OnReload func(substantive bool)
}

// NewWatcher creates a watcher that calls r.Reload when one of files changes.
func NewWatcher(r *Resolver, files []string, logger *slog.Logger) *Watcher {
	return newWatcher(r.Reload, files, logger)
}

func newWatcher(reload func(context.Context) bool, files []string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = discardLogger()
	}
	w := &Watcher{
		reload:   reload,
		files:    make(map[string]struct{}, len(files)),
		debounce: DefaultDebounce,
		logger:   logger,
	}
	seen := make(map[string]bool)
	for _, f := range files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = filepath.Clean(f)
		}
		w.files[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	return w
}

// SetDebounce changes the settle delay.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run watches until ctx is done. It returns nil on cancellation and an error
// only if watching could not start.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	for _, dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		w.logger.Debug("watching directory", "dir", dir)
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("registry file changed", "file", ev.Name, "op", ev.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-timer.C:
			substantive := w.reload(ctx)
			w.logger.Info("registry reloaded after change", "substantive", substantive)
			if w.OnReload != nil {
				w.OnReload(substantive)
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	_, ok := w.files[filepath.Clean(ev.Name)]
	return ok
}
