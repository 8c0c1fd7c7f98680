package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/trigg/orientprompt/internal/config"
)

// ConfigWatcher watches the config directory and reloads the config file
// and stylesheet when they change.
type ConfigWatcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	configPath string
	stylePath  string
	debounce   time.Duration

	currentConfig *config.Config

	// Callbacks
	onReloadCallback func(newConfig *config.Config)
	onErrorCallback  func(err error)
	onStyleCallback  func()

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewConfigWatcher creates a watcher for configPath and stylePath. Both
// are expected to live in the same directory; stylePath may be empty.
func NewConfigWatcher(configPath, stylePath string, logger *slog.Logger) *ConfigWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigWatcher{
		logger:     logger,
		configPath: configPath,
		stylePath:  stylePath,
		debounce:   200 * time.Millisecond,
	}
}

// SetDebounce sets how long to wait for a burst of writes to settle.
func (w *ConfigWatcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// SetReloadCallback sets the callback to invoke when config is successfully reloaded.
func (w *ConfigWatcher) SetReloadCallback(callback func(newConfig *config.Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReloadCallback = callback
}

// SetErrorCallback sets the callback to invoke when config reload fails validation.
func (w *ConfigWatcher) SetErrorCallback(callback func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onErrorCallback = callback
}

// SetStyleCallback sets the callback to invoke when the stylesheet changes.
func (w *ConfigWatcher) SetStyleCallback(callback func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onStyleCallback = callback
}

// CurrentConfig returns the last valid configuration.
func (w *ConfigWatcher) CurrentConfig() *config.Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.currentConfig
}

// Start begins watching. The directory must exist; a missing directory
// is reported as an error and nothing is watched.
func (w *ConfigWatcher) Start(ctx context.Context, initialConfig *config.Config) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}

	// Watch the directory containing the file (more reliable for editors
	// that replace files on save)
	dir := filepath.Dir(w.configPath)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return err
	}

	w.watcher = watcher
	w.currentConfig = initialConfig
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.watchLoop(ctx)

	w.logger.Debug("config watcher started", "dir", dir)
	return nil
}

// Stop stops watching.
func (w *ConfigWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh
	_ = w.watcher.Close()
	w.logger.Debug("config watcher stopped")
}

// watchLoop collects events and fires reloads once they settle.
func (w *ConfigWatcher) watchLoop(ctx context.Context) {
	defer close(w.doneCh)

	configName := filepath.Base(w.configPath)
	styleName := ""
	if w.stylePath != "" {
		styleName = filepath.Base(w.stylePath)
	}

	var (
		timer         *time.Timer
		timerC        <-chan time.Time
		configPending bool
		stylePending  bool
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			switch filepath.Base(event.Name) {
			case configName:
				configPending = true
			case styleName:
				stylePending = true
			default:
				continue
			}

			w.mu.RLock()
			debounce := w.debounce
			w.mu.RUnlock()
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if configPending {
				configPending = false
				w.reloadConfig()
			}
			if stylePending {
				stylePending = false
				w.reloadStyle()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

// reloadConfig loads and validates the config file.
func (w *ConfigWatcher) reloadConfig() {
	w.mu.RLock()
	reloadCallback := w.onReloadCallback
	errorCallback := w.onErrorCallback
	w.mu.RUnlock()

	w.logger.Debug("config file changed", "path", w.configPath)

	newConfig, err := config.Load(w.configPath)
	if err != nil {
		w.logger.Warn("config file changed but validation failed", "error", err)
		if errorCallback != nil {
			errorCallback(err)
		}
		return
	}

	w.mu.Lock()
	w.currentConfig = newConfig
	w.mu.Unlock()

	w.logger.Info("config reloaded successfully")
	if reloadCallback != nil {
		reloadCallback(newConfig)
	}
}

func (w *ConfigWatcher) reloadStyle() {
	w.mu.RLock()
	callback := w.onStyleCallback
	w.mu.RUnlock()

	w.logger.Debug("stylesheet changed", "path", w.stylePath)
	if callback != nil {
		callback()
	}
}
