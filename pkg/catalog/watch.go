package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bastiangx/shelfserve/internal/logger"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// ReloadFunc receives a freshly loaded snapshot. A returned error is logged
// and the watcher keeps running; whatever index was live stays live.
type ReloadFunc func([]Record) error

// Watcher reloads a catalog snapshot file whenever it changes on disk.
type Watcher struct {
	path   string
	reload ReloadFunc

	// Debounce collapses the burst of events editors and atomic renames produce.
	Debounce time.Duration
}

// NewWatcher creates a Watcher for path.
func NewWatcher(path string, reload ReloadFunc) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		reload:   reload,
		Debounce: 200 * time.Millisecond,
	}
}

// Run blocks until ctx is cancelled. The parent directory is watched rather
// than the file itself so replacing the file by rename is still seen.
func (w *Watcher) Run(ctx context.Context) error {
	lg := logger.New("watch")

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating catalog watcher: %w", err)
	}
	defer func() {
		if err := fw.Close(); err != nil {
			lg.Warnf("Failed to close catalog watcher: %v", err)
		}
	}()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	lg.Debugf("Watching catalog file: %s", w.path)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			lg.Debugf("Catalog changed (%s)", event.Op)
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reloadOnce(lg)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			lg.Errorf("Catalog watcher error: %v", err)
		}
	}
}

// reloadOnce loads the file and calls the reload callback.
func (w *Watcher) reloadOnce(lg *log.Logger) {
	records, err := LoadFile(w.path)
	if err != nil {
		lg.Warnf("Catalog reload skipped, keeping current index: %v", err)
		return
	}
	if err := w.reload(records); err != nil {
		lg.Warnf("Catalog rebuild rejected, keeping current index: %v", err)
		return
	}
	lg.Infof("Catalog reloaded: %d records", len(records))
}
