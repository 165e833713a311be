package server

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/labelpress/labelpress/internal/cliconfig"
	"github.com/labelpress/labelpress/pkg/log"
)

const defaultDebounceDelay = 100 * time.Millisecond

// ConfigWatcher reloads the configuration file while the server runs.
// Edits take effect for jobs accepted after the reload; in-flight jobs are
// never reconfigured.
type ConfigWatcher struct {
	path     string
	server   *Server
	logger   log.Logger
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
	wg    sync.WaitGroup
}

// NewConfigWatcher watches the config file at path and pushes validated
// reloads into srv.
func NewConfigWatcher(path string, srv *Server, logger log.Logger) *ConfigWatcher {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &ConfigWatcher{
		path:     path,
		server:   srv,
		logger:   logger,
		debounce: defaultDebounceDelay,
	}
}

// Start begins watching until ctx is cancelled. Watching the parent
// directory survives editors that replace the file instead of writing it.
func (w *ConfigWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer watcher.Close()
		w.loop(ctx, watcher)
	}()
	return nil
}

// Wait blocks until the watch loop has exited.
func (w *ConfigWatcher) Wait() { w.wg.Wait() }

func (w *ConfigWatcher) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	base := filepath.Base(w.path)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", log.Err(err))
		}
	}
}

// scheduleReload debounces bursts of file events into one reload.
func (w *ConfigWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

// reload parses and validates the file, keeping the previous snapshot on
// any error.
func (w *ConfigWatcher) reload() {
	fc, err := cliconfig.LoadFileConfig(w.path)
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous", log.Str("path", w.path), log.Err(err))
		return
	}

	cfg := cliconfig.DefaultConfig()
	if err := cliconfig.ApplyFileConfig(&cfg, fc, nil); err != nil {
		w.logger.Warn("config reload failed, keeping previous", log.Err(err))
		return
	}
	if err := cliconfig.ApplyEnvConfig(&cfg, nil); err != nil {
		w.logger.Warn("config reload failed, keeping previous", log.Err(err))
		return
	}
	if err := cfg.Validate(); err != nil {
		w.logger.Warn("config reload rejected", log.Err(err))
		return
	}

	w.server.SetConfig(cfg)
}
