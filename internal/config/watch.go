package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/mantonx/moviedb/internal/logger"
)

// Watch reloads the configuration whenever the loaded config file changes,
// until ctx is cancelled. A file that fails to parse or validate is logged
// and the previous configuration stays active.
//
// The parent directory is watched rather than the file itself so that editors
// which save by rename are picked up.
func (cm *ConfigManager) Watch(ctx context.Context) error {
	path := cm.ConfigPath()
	if path == "" {
		return fmt.Errorf("no config path set")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	log := logger.Named("config")
	target := filepath.Clean(path)

	go func() {
		defer watcher.Close()
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
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := cm.LoadConfig(path); err != nil {
					log.Warn("config reload rejected", "path", path, "error", err)
					continue
				}
				log.Info("configuration reloaded", "path", path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("config watcher error", "error", err)
			}
		}
	}()

	return nil
}
