package toml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bnema/clawsync/internal/domain"
	"github.com/fsnotify/fsnotify"
)

// Watch calls onChange with the reloaded preferences whenever the file is
// written or replaced by another process. Unreadable intermediate states are
// skipped. It blocks until ctx is done.
func (r *Repository) Watch(ctx context.Context, onChange func(domain.Preferences)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create preferences watcher: %w", err)
	}
	defer watcher.Close()

	// Saves replace the file by rename, so watch the directory.
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, preferencesDirMode); err != nil {
		return fmt.Errorf("create preferences directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch preferences directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != r.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			prefs, err := r.Load(ctx)
			if err != nil {
				continue
			}
			onChange(prefs)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch preferences: %w", err)
		}
	}
}
