package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/crewdesk/crewdesk/pkg/observability"
)

// Watcher reloads the config file when it changes on disk and hands the
// reloaded configuration to a callback. Environment overrides still apply on
// every reload, so a file change never reverts an env-pinned setting.
type Watcher struct {
	path     string
	logger   *observability.Logger
	onReload func(*Config)
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewWatcher creates a watcher for the given config file.
func NewWatcher(path string, logger *observability.Logger, onReload func(*Config)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: editors and config mounts typically replace the
	// file, which drops a watch held on the file itself.
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	return &Watcher{
		path:     path,
		logger:   logger,
		onReload: onReload,
		watcher:  fsWatcher,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. It returns immediately; reloads run on a background
// goroutine until Stop is called.
func (w *Watcher) Start() {
	go w.loop()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("config watcher error")
		}
	}
}

func (w *Watcher) reload() {
	cfg := DefaultConfig()
	if err := cfg.loadFile(w.path); err != nil {
		w.logger.WithError(err).Warn("failed to reload config file")
		return
	}
	cfg.loadEnv()
	if err := cfg.Validate(); err != nil {
		w.logger.WithError(err).Warn("reloaded config is invalid, keeping previous")
		return
	}
	w.logger.WithField("path", w.path).Info("config reloaded")
	w.onReload(cfg)
}

// Stop ends watching and releases the underlying watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}
