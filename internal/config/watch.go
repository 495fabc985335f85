package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce collapses the burst of events an editor save produces
const reloadDebounce = 200 * time.Millisecond

// WatchUserConfig calls onChange with the re-read config every time
// config.toml is written, created or renamed into place. The directory is
// watched rather than the file so atomic saves are seen. Watching stops when
// ctx is done.
func WatchUserConfig(ctx context.Context, onChange func(*UserConfig, error)) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return watchFile(ctx, path, func() {
		ClearUserConfigCache()
		onChange(LoadUserConfig())
	})
}

func watchFile(ctx context.Context, path string, reload func()) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if debounce == nil {
					debounce = time.NewTimer(reloadDebounce)
				} else {
					debounce.Reset(reloadDebounce)
				}
				fire = debounce.C

			case <-fire:
				fire = nil
				log.Printf("[CONFIG] %s changed, reloading", path)
				reload()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[CONFIG] Watcher error: %v", err)
			}
		}
	}()

	return nil
}
