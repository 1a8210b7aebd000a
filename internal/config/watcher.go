package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"locode/internal/logging"
)

// ReloadHandler receives the freshly loaded configuration after the
// config file changes on disk.
type ReloadHandler func(cfg *Config)

// Watcher reloads the configuration when its file changes. Editors
// often write via rename, so the parent directory is watched and events
// are debounced before reloading.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	configPath string
	onReload   ReloadHandler
	debounce   time.Duration

	mu       sync.Mutex
	pending  time.Time
	running  bool
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for the given config file.
func NewWatcher(configPath string, onReload ReloadHandler) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsWatcher:  fsWatcher,
		configPath: configPath,
		onReload:   onReload,
		debounce:   500 * time.Millisecond,
		done:       make(chan struct{}),
	}, nil
}

// Start begins watching the config file's directory.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.fsWatcher.Add(filepath.Dir(w.configPath)); err != nil {
		return err
	}

	go w.processEvents()
	go w.processDebounce()
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	w.stopOnce.Do(func() {
		close(w.done)
	})
	return w.fsWatcher.Close()
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = time.Now()
			w.mu.Unlock()
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logging.Warn("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) processDebounce() {
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.flushPending()
		}
	}
}

func (w *Watcher) flushPending() {
	w.mu.Lock()
	pending := w.pending
	if pending.IsZero() || time.Since(pending) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	handler := w.onReload
	w.mu.Unlock()

	cfg, err := LoadFrom(w.configPath)
	if err != nil {
		logging.Warn("config reload failed", "path", w.configPath, "error", err)
		return
	}

	logging.Info("config reloaded", "path", w.configPath)
	if handler != nil {
		handler(cfg)
	}
}
