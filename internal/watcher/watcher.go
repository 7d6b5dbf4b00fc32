// Package watcher provides file system monitoring for the proxy's
// configuration file. When config.yaml changes on disk the watcher reloads
// it and hands the new configuration to a callback, enabling hot-reload of
// model routes and settings without a restart.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/openclaw/modelsproxy/internal/config"
)

// Watcher monitors the configuration file for changes.
type Watcher struct {
	configPath     string
	reloadCallback func(*config.Config)
	watcher        *fsnotify.Watcher

	mu             sync.Mutex
	lastConfigHash string
}

// NewWatcher creates a new file watcher for the given configuration file.
// The callback runs after each successful reload.
func NewWatcher(configPath string, reloadCallback func(*config.Config)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		configPath:     configPath,
		reloadCallback: reloadCallback,
		watcher:        fsWatcher,
	}, nil
}

// Start begins watching the configuration file. Event processing runs in a
// background goroutine until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.configPath); err != nil {
		log.Errorf("failed to watch config file %s: %v", w.configPath, err)
		return err
	}
	log.Debugf("watching config file: %s", w.configPath)

	if data, err := os.ReadFile(w.configPath); err == nil {
		w.setHash(hashOf(data))
	}

	go w.processEvents(ctx)
	return nil
}

// Stop stops the file watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case errWatch, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("file watcher error: %v", errWatch)
		}
	}
}

// handleEvent processes a single file system event. Editors often fire
// several write events per save, so reloads are deduplicated by content
// hash rather than by event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Name != w.configPath {
		return
	}
	if event.Op&fsnotify.Write != fsnotify.Write && event.Op&fsnotify.Create != fsnotify.Create {
		return
	}

	log.Debugf("file system event detected: %s %s", event.Op.String(), event.Name)

	data, err := os.ReadFile(w.configPath)
	if err != nil {
		log.Errorf("failed to read config file for hash check: %v", err)
		return
	}
	if len(data) == 0 {
		log.Debugf("ignoring empty config file write event")
		return
	}

	newHash := hashOf(data)
	w.mu.Lock()
	unchanged := w.lastConfigHash != "" && w.lastConfigHash == newHash
	w.mu.Unlock()
	if unchanged {
		log.Debugf("config file content unchanged (hash match), skipping reload")
		return
	}

	log.Infof("config file changed, reloading: %s", w.configPath)
	if w.reloadConfig() {
		w.setHash(newHash)
	}
}

// reloadConfig reloads the configuration file and invokes the callback.
// Returns false when the file cannot be parsed; the previous configuration
// stays in effect.
func (w *Watcher) reloadConfig() bool {
	newConfig, err := config.LoadConfig(w.configPath)
	if err != nil {
		log.Errorf("failed to reload config file %s: %v", w.configPath, err)
		return false
	}

	if w.reloadCallback != nil {
		w.reloadCallback(newConfig)
	}
	return true
}

func (w *Watcher) setHash(h string) {
	w.mu.Lock()
	w.lastConfigHash = h
	w.mu.Unlock()
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
