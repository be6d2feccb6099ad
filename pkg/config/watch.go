package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"wonderland/internal/logger"
)

// reloadDelay coalesces the burst of events editors emit for one save
const reloadDelay = 100 * time.Millisecond

// Watch reloads filePath whenever it changes and delivers each valid
// configuration on the returned channel. Unreadable or invalid reloads are
// logged and skipped. The channel is closed when ctx is done.
func Watch(ctx context.Context, filePath string, log *logger.Logger) (<-chan *Config, error) {
	if log == nil {
		log = logger.Discard()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}

	// Watch the directory: editors often replace the file instead of
	// writing it in place
	target := filepath.Clean(filePath)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filePath, err)
	}

	out := make(chan *Config, 1)
	go func() {
		defer close(out)
		defer watcher.Close()

		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					pending = time.After(reloadDelay)
				}

			case <-pending:
				pending = nil
				cfg, err := LoadConfig(target)
				if err != nil {
					log.Warnf("config reload skipped: %v", err)
					continue
				}
				if err := cfg.Validate(); err != nil {
					log.Warnf("config reload rejected: %v", err)
					continue
				}
				log.Infof("config reloaded from %s", target)

				select {
				case out <- cfg:
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("config watcher: %v", err)
			}
		}
	}()

	return out, nil
}
