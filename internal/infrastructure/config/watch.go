package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is how long the watcher waits after the last filesystem
// event before reloading. Editors and atomic-rename writers emit bursts of
// events for a single logical save.
const defaultDebounce = 250 * time.Millisecond

// WatchFile watches the store's config file and calls Reload on change.
// It blocks until ctx is cancelled or the watcher fails.
//
// The parent directory is watched rather than the file itself because most
// editors (and the store's own save path) replace the file via rename, which
// would otherwise silently detach a file-level watch.
func (s *Store) WatchFile(ctx context.Context) error {
	return s.watchFile(ctx, defaultDebounce)
}

func (s *Store) watchFile(ctx context.Context, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	s.logger.Info("watching config file", "path", s.path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("config watch error", "error", err)

		case <-timer.C:
			if err := s.Reload(); err != nil {
				// Keep serving the last good config.
				s.logger.Error("config reload failed", "error", err)
			}
		}
	}
}
