package safeurl

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is how long to wait for further changes before reloading.
const defaultDebounce = 500 * time.Millisecond

// Watcher reloads a Blocklist from a file whenever it changes on disk.
// The parent directory is watched rather than the file itself, so editors
// and config tools that replace the file by rename are still seen.
type Watcher struct {
	path      string
	blocklist *Blocklist
	debounce  time.Duration
	logger    *slog.Logger
	watcher   *fsnotify.Watcher

	wg      sync.WaitGroup
	reloads atomic.Int64
}

// NewWatcher creates a watcher for the blocklist file at path. The file is
// loaded once immediately; a missing file at startup is an error.
func NewWatcher(path string, blocklist *Blocklist, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := blocklist.LoadFile(path); err != nil {
		return nil, fmt.Errorf("loading blocklist %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		path:      path,
		blocklist: blocklist,
		debounce:  defaultDebounce,
		logger:    logger,
		watcher:   fsw,
	}, nil
}

// Start begins watching. It returns immediately; reloads happen on a
// background goroutine until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.run(ctx)

	w.logger.Info("Blocklist watcher started",
		"path", w.path,
		"patterns", len(w.blocklist.Patterns()))
	return nil
}

// Stop stops the watcher and waits for the reload goroutine to exit.
func (w *Watcher) Stop() error {
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

// Reloads returns the number of successful reloads.
func (w *Watcher) Reloads() int64 {
	return w.reloads.Load()
}

// run handles fsnotify events with debouncing. The timer stays stopped
// until a relevant event arrives, then resets on every further event so a
// burst of writes causes a single reload.
func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Blocklist watcher error", "error", err)

		case <-timer.C:
			w.reload()
		}
	}
}

// reload re-reads the blocklist file, keeping the previous patterns when
// the read fails.
func (w *Watcher) reload() {
	if err := w.blocklist.LoadFile(w.path); err != nil {
		w.logger.Warn("Blocklist reload failed, keeping previous patterns",
			"path", w.path,
			"error", err)
		return
	}

	count := w.reloads.Add(1)
	w.logger.Info("Blocklist reloaded",
		"path", w.path,
		"patterns", len(w.blocklist.Patterns()),
		"reloads", count)
}
