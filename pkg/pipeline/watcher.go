package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher watches the staging directory and triggers a callback when a
// geometry file lands. Rapid successive events (partial writes, editor
// renames) are debounced.
type Watcher struct {
	dir          string
	watcher      *fsnotify.Watcher
	triggerFunc  func(string)
	log          zerolog.Logger
	mu           sync.RWMutex
	running      bool
	stopCh       chan struct{}
	debounceTime time.Duration

	pendingMu     sync.Mutex
	pendingPath   string
	debounceTimer *time.Timer
}

// NewWatcher creates a staging directory watcher. triggerFunc receives the
// path of the geometry file that changed.
func NewWatcher(dir string, triggerFunc func(string), log zerolog.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		dir:          dir,
		watcher:      watcher,
		triggerFunc:  triggerFunc,
		log:          log.With().Str("component", "watcher").Logger(),
		stopCh:       make(chan struct{}),
		debounceTime: 1 * time.Second,
	}, nil
}

// Start begins watching the staging directory.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}

	w.log.Info().Str("dir", w.dir).Msg("staging watcher started")

	go w.watchLoop(ctx)
	return nil
}

// Stop stops the watcher and cancels any pending trigger.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)

	w.pendingMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.pendingMu.Unlock()

	return w.watcher.Close()
}

// IsRunning reports whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("staging watcher error")

		case <-w.stopCh:
			w.log.Info().Msg("staging watcher stopped")
			return

		case <-ctx.Done():
			w.log.Info().Msg("staging watcher context cancelled")
			return
		}
	}
}

// handleEvent records a geometry event and resets the debounce timer.
// Uploads arrive as a burst of writes; the trigger fires once the file has
// settled for the debounce window.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !isGeometryEvent(event) {
		return
	}

	w.log.Debug().Str("event", event.Op.String()).Str("file", event.Name).
		Msg("geometry file event")

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.pendingPath = event.Name
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceTime, w.firePending)
}

func (w *Watcher) firePending() {
	w.pendingMu.Lock()
	path := w.pendingPath
	w.pendingMu.Unlock()

	w.log.Info().Str("file", path).Msg("geometry file settled, triggering run")
	w.triggerFunc(path)
}

func isGeometryEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	return strings.EqualFold(filepath.Ext(event.Name), ".obj")
}
