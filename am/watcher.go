package am

import (
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/umi/errors"
	"github.com/teranos/umi/logger"
)

// DefaultReloadDebounce lets editors finish multi-step saves before reloading.
const DefaultReloadDebounce = 500 * time.Millisecond

// ReloadCallback receives the configuration in effect before a reload and
// the one replacing it.
type ReloadCallback func(prev, next *Config) error

// ConfigWatcher reloads one config file when it changes and hands the
// result to registered callbacks. Reloads that fail validation or change
// nothing are dropped.
type ConfigWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	load     func() (*Config, error)
	debounce time.Duration

	mu        sync.Mutex
	timer     *time.Timer
	current   *Config
	callbacks []ReloadCallback
}

// NewConfigWatcher watches path. current is the configuration already in
// use and may be nil. The parent directory is watched so files replaced on
// save are still seen.
func NewConfigWatcher(path string, current *Config) (*ConfigWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "failed to watch config file %s", path)
	}
	return &ConfigWatcher{
		path:     path,
		watcher:  w,
		debounce: DefaultReloadDebounce,
		current:  current,
		load: func() (*Config, error) {
			Reset()
			return Load()
		},
	}, nil
}

// OnReload registers fn.
func (cw *ConfigWatcher) OnReload(fn ReloadCallback) {
	cw.mu.Lock()
	cw.callbacks = append(cw.callbacks, fn)
	cw.mu.Unlock()
}

// Start watches in the background until Stop.
func (cw *ConfigWatcher) Start() {
	go cw.loop()
}

func (cw *ConfigWatcher) loop() {
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if cw.relevant(event) {
				logger.Debugw("Config file changed", logger.FieldFile, event.Name, "op", event.Op.String())
				cw.schedule()
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("Config watcher error", logger.FieldError, err)
		}
	}
}

// relevant reports whether event writes the watched file itself.
func (cw *ConfigWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	if isBackupFile(event.Name) {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(cw.path)
}

func (cw *ConfigWatcher) schedule() {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.timer != nil {
		cw.timer.Stop()
	}
	cw.timer = time.AfterFunc(cw.debounce, func() {
		if err := cw.reload(); err != nil {
			logger.Errorw("Config reload failed", logger.FieldPath, cw.path, logger.FieldError, err)
		}
	})
}

// reload loads the file and runs every callback, even after one fails.
func (cw *ConfigWatcher) reload() error {
	next, err := cw.load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := next.Validate(); err != nil {
		return errors.Wrap(err, "reloaded config is invalid, keeping previous")
	}

	cw.mu.Lock()
	prev := cw.current
	if prev != nil && reflect.DeepEqual(prev, next) {
		cw.mu.Unlock()
		logger.Debugw("Config unchanged after reload", logger.FieldPath, cw.path)
		return nil
	}
	cw.current = next
	callbacks := append([]ReloadCallback(nil), cw.callbacks...)
	cw.mu.Unlock()

	logger.Infow("Config reloaded", logger.FieldPath, cw.path)
	for _, fn := range callbacks {
		if err := fn(prev, next); err != nil {
			logger.Warnw("Config reload callback error", logger.FieldError, err)
		}
	}
	return nil
}

// Stop ends watching and cancels a pending reload.
func (cw *ConfigWatcher) Stop() error {
	cw.mu.Lock()
	if cw.timer != nil {
		cw.timer.Stop()
	}
	cw.mu.Unlock()
	return cw.watcher.Close()
}

// isBackupFile matches the rotated .back1 to .back3 copies written by SetUserValue.
func isBackupFile(path string) bool {
	return strings.HasPrefix(filepath.Ext(path), ".back")
}
