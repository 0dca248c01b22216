package tokens

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"uefbridge/pkg/logging"
)

// DefaultWatchInterval is the fallback polling interval when fsnotify is
// not available.
const DefaultWatchInterval = 10 * time.Second

// DefaultDebounceInterval is the time to wait before notifying after the
// last file change is detected. A provider that rewrites the credential
// file in multiple steps produces one notification, not several.
const DefaultDebounceInterval = 500 * time.Millisecond

// WatcherConfig holds configuration for the credential watcher.
type WatcherConfig struct {
	// Store is the credential store whose files are watched.
	Store *Store

	// Keys are the storage keys to watch.
	Keys []string

	// WatchInterval is the fallback polling interval.
	WatchInterval time.Duration

	// OnChange is called with the storage key when its credential file
	// changes. The store's cache entry is invalidated before the call.
	OnChange func(key string)
}

// Watcher monitors credential files so a token refreshed by an external
// process is picked up without restarting the bridge. It uses fsnotify with
// a polling fallback.
type Watcher struct {
	mu sync.Mutex

	config WatcherConfig

	// watched maps credential file names to their storage keys.
	watched map[string]string

	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	running   bool

	lastModTimes map[string]time.Time

	debounceMu     sync.Mutex
	debounceTimers map[string]*time.Timer
}

// NewWatcher creates a credential watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.WatchInterval == 0 {
		config.WatchInterval = DefaultWatchInterval
	}

	watched := make(map[string]string, len(config.Keys))
	for _, key := range config.Keys {
		if key == "" {
			continue
		}
		watched[filepath.Base(config.Store.Path(key))] = key
	}

	return &Watcher{
		config:         config,
		watched:        watched,
		lastModTimes:   make(map[string]time.Time),
		debounceTimers: make(map[string]*time.Timer),
	}
}

// Start begins watching for credential changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	w.stopCh = make(chan struct{})
	w.running = true

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("Tokens", "fsnotify not available, falling back to polling: %v", err)
		go w.pollForChanges()
		return nil
	}
	w.fsWatcher = watcher

	if err := w.fsWatcher.Add(w.config.Store.Dir()); err != nil {
		logging.Warn("Tokens", "failed to watch %s, falling back to polling: %v",
			w.config.Store.Dir(), err)
		w.fsWatcher.Close()
		w.fsWatcher = nil
		go w.pollForChanges()
		return nil
	}

	eventsCh := w.fsWatcher.Events
	errorsCh := w.fsWatcher.Errors
	go w.processEvents(eventsCh, errorsCh)

	logging.Info("Tokens", "watching %s for credential changes", w.config.Store.Dir())
	return nil
}

// Stop ends the watch.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)

	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
}

func (w *Watcher) processEvents(eventsCh <-chan fsnotify.Event, errorsCh <-chan error) {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			logging.Error("Tokens", err, "fsnotify error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	key, ok := w.watched[filepath.Base(event.Name)]
	if !ok {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	logging.Debug("Tokens", "credential file changed for key %s", key)
	w.notifyDebounced(key)
}

// notifyDebounced invalidates the cache and fires OnChange after the
// debounce period, once per burst of changes.
func (w *Watcher) notifyDebounced(key string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer := w.debounceTimers[key]; timer != nil {
		timer.Stop()
	}

	w.debounceTimers[key] = time.AfterFunc(DefaultDebounceInterval, func() {
		w.mu.Lock()
		running := w.running
		callback := w.config.OnChange
		w.mu.Unlock()

		if !running {
			return
		}
		w.config.Store.Invalidate(key)
		if callback != nil {
			callback(key)
		}
	})
}

func (w *Watcher) pollForChanges() {
	ticker := time.NewTicker(w.config.WatchInterval)
	defer ticker.Stop()

	w.updateModTimes()

	for {
		select {
		case <-w.stopCh:
			return

		case <-ticker.C:
			for _, key := range w.checkForChanges() {
				logging.Debug("Tokens", "credential change detected via polling for key %s", key)
				w.notifyDebounced(key)
			}
		}
	}
}

func (w *Watcher) updateModTimes() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, key := range w.config.Keys {
		path := w.config.Store.Path(key)
		if info, err := os.Stat(path); err == nil {
			w.lastModTimes[path] = info.ModTime()
		}
	}
}

func (w *Watcher) checkForChanges() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var changed []string
	for _, key := range w.config.Keys {
		path := w.config.Store.Path(key)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if last, ok := w.lastModTimes[path]; !ok || info.ModTime().After(last) {
			w.lastModTimes[path] = info.ModTime()
			if ok {
				changed = append(changed, key)
			}
		}
	}
	return changed
}
