package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"schoolpulse/internal/infrastructure"
)

// Listener is told about reloads triggered by file changes
type Listener interface {
	DatasetReloaded(ctx context.Context, snap Snapshot)
	DatasetFailed(ctx context.Context, err error)
}

// Watcher reloads the cache when a source file is written, created, renamed
// or removed. Bursts of events within the debounce window cause one reload.
type Watcher struct {
	cache     *Cache
	debounce  time.Duration
	logger    *slog.Logger
	listeners []Listener
	files     map[string]struct{}
	fsw       *fsnotify.Watcher
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewWatcher watches the directories holding the cache's sources
func NewWatcher(cache *Cache, debounce time.Duration, logger *slog.Logger, listeners ...Listener) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	w := &Watcher{
		cache:     cache,
		debounce:  debounce,
		logger:    logger.With(slog.String("component", "dataset_watcher")),
		listeners: listeners,
		files:     make(map[string]struct{}),
		fsw:       fsw,
	}

	dirs := make(map[string]struct{})
	for _, src := range cache.loader.Sources() {
		abs, err := filepath.Abs(src.Path)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("resolve %s: %w", src.Path, err)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	return w, nil
}

// Start runs the event loop until ctx is cancelled or Close is called
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
	w.logger.Info("watching dataset sources",
		slog.Int("files", len(w.files)),
		slog.Duration("debounce", w.debounce))
}

// Close stops watching and waits for the event loop to exit
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) run(ctx context.Context) {
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("source changed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			timer.Reset(w.debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", slog.String("error", err.Error()))
		case <-timer.C:
			w.reload(ctx)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}

func (w *Watcher) reload(ctx context.Context) {
	snap, changed, err := w.cache.reload(ctx, "watch")
	if err != nil {
		for _, l := range w.listeners {
			l.DatasetFailed(ctx, err)
		}
		return
	}
	if !changed {
		return
	}
	for _, l := range w.listeners {
		l.DatasetReloaded(ctx, snap)
	}
}
