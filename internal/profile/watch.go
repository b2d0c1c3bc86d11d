package profile

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the store when the file is edited by another process. It
// returns once the watch is in place and stops when ctx is done. Edits that
// fail to parse are logged and ignored.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// The directory is watched because saves replace the file by rename.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(s.path), err)
	}

	go func() {
		defer watcher.Close()
		name := filepath.Clean(s.path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != name {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				changed, err := s.reload()
				if err != nil {
					log.Printf("Ignoring profile file edit: %v", err)
					continue
				}
				if changed {
					log.Printf("Reloaded profiles from %s", s.path)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Profile watcher error: %v", err)
			}
		}
	}()
	return nil
}
