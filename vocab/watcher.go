package vocab

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/umi/errors"
	"github.com/teranos/umi/logger"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc is told about each successful refresh.
type ReloadFunc func(Stats)

// Watcher refreshes a Store when files under its directory change.
type Watcher struct {
	store    *Store
	dir      string
	watcher  *fsnotify.Watcher
	log      *zap.SugaredLogger
	debounce time.Duration

	mu        sync.Mutex
	timer     *time.Timer
	callbacks []ReloadFunc
	started   bool
	stopped   bool

	done chan struct{}
}

// NewWatcher watches dir (recursively) on behalf of store.
// dir must be the directory the store's file system was opened on.
func NewWatcher(store *Store, dir string, debounce time.Duration, log *zap.SugaredLogger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	w := &Watcher{
		store:    store,
		dir:      dir,
		watcher:  fw,
		log:      logger.OrComponent(log, "vocab.watcher"),
		debounce: debounce,
		done:     make(chan struct{}),
	}

	if err := w.addTree(dir); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", dir)
	}
	return w, nil
}

// addTree registers dir and every non-hidden directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(p)
	})
}

// OnReload registers a callback run after every successful refresh.
func (w *Watcher) OnReload(fn ReloadFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, fn)
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	w.mu.Lock()
	w.started = true
	w.mu.Unlock()
	go w.loop()
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.log.Warnw("Failed to watch new directory", logger.FieldPath, event.Name, logger.FieldError, err)
					}
				}
			}
			if !relevant(event) {
				continue
			}
			w.log.Debugw("Wildcard change detected", logger.FieldFile, event.Name, "op", event.Op.String())
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warnw("Wildcard watcher error", logger.FieldError, err)
		}
	}
}

// relevant reports whether an event can change the vocabulary.
func relevant(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".txt", ".yaml", ".yml":
		return true
	case "":
		// directory create/remove/rename
		return !event.Has(fsnotify.Write)
	}
	return false
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	if err := w.store.Refresh(); err != nil {
		w.log.Errorw("Wildcard refresh failed", logger.FieldError, err)
		return
	}
	stats := w.store.Stats()

	w.mu.Lock()
	callbacks := append([]ReloadFunc(nil), w.callbacks...)
	w.mu.Unlock()

	for _, fn := range callbacks {
		fn(stats)
	}
}

// Stop ends watching and cancels any pending refresh.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	w.stopped = true
	started := w.started
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.watcher.Close()
	if started {
		<-w.done
	}
	return err
}
