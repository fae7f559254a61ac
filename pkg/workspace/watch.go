package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/acronis/go-resedit/pkg/slogex"
)

const (
	defaultDebounce = 200 * time.Millisecond
	flushInterval   = 50 * time.Millisecond
)

// Watch blocks until ctx is done, calling onChange with the name of an open file
// whenever its content on disk stops matching the version last read or written.
// Writes done by Save are not reported.
func (w *Workspace) Watch(ctx context.Context, onChange func(name string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	byPath := make(map[string]string)
	dirs := make(map[string]struct{})
	w.mu.RLock()
	for _, name := range w.order {
		p := filepath.Clean(w.files[name].file.Path)
		byPath[p] = name
		dirs[filepath.Dir(p)] = struct{}{}
	}
	w.mu.RUnlock()

	// directories are watched since editors often replace files instead of writing them
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		slog.Debug("Watching directory", slog.String("path", dir))
	}

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if name, ok := byPath[filepath.Clean(event.Name)]; ok {
				pending[name] = time.Now()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", slogex.Error(err))

		case now := <-ticker.C:
			for name, at := range pending {
				if now.Sub(at) < defaultDebounce {
					continue
				}
				delete(pending, name)
				changed, err := w.Changed(name)
				if err != nil {
					slog.Warn("Check changed file", slog.String("name", name), slogex.Error(err))
					continue
				}
				if changed {
					onChange(name)
				}
			}
		}
	}
}
