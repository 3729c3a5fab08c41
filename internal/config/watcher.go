// internal/config/watcher.go
package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/osdlabs/chromepuppet/internal/utils"
)

// Watcher reloads a job config file when it changes on disk, so a
// long-running balancer can pick up threshold edits without a restart.
type Watcher struct {
	watcher    *fsnotify.Watcher
	configPath string
	logger     utils.Logger

	mu        sync.RWMutex
	callbacks []func(*Config)
	stopped   bool
}

// NewWatcher starts watching the config file. logger may be nil.
func NewWatcher(configPath string, logger utils.Logger) (*Watcher, error) {
	if logger == nil {
		logger = utils.NewLogger()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		watcher:    fw,
		configPath: filepath.Clean(configPath),
		logger:     logger,
	}

	// Watch the directory, not just the file: editors replace the file
	// on save, which drops a plain file watch.
	if err := fw.Add(filepath.Dir(w.configPath)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	go w.watch()
	return w, nil
}

// OnChange registers a callback invoked with each valid reloaded
// config. Callbacks run on the watcher goroutine.
func (w *Watcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

func (w *Watcher) watch() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.configPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.reload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnf("config watcher error: %v", err)
		}
	}
}

// reload parses and validates the changed file. An invalid edit is
// logged and ignored; the running job keeps its current settings.
func (w *Watcher) reload() {
	w.mu.RLock()
	if w.stopped {
		w.mu.RUnlock()
		return
	}
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	cfg, err := LoadFromFile(w.configPath)
	if err != nil {
		w.logger.Warnf("config reload failed, keeping current settings: %v", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		w.logger.Warnf("changed config is invalid, keeping current settings: %v", err)
		return
	}

	w.logger.Infof("config %s reloaded", w.configPath)
	for _, callback := range callbacks {
		callback(cfg)
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
	return w.watcher.Close()
}
