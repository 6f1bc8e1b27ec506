package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups editor save bursts into one change notification.
const DefaultDebounce = 200 * time.Millisecond

// Watch invokes onChange with the sorted set of changed files under root that
// match exts, until ctx is done. Events arriving within debounce of each
// other are delivered together. A file root is watched on its own.
func Watch(ctx context.Context, root string, exts []string, debounce time.Duration, onChange func([]string)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", root, err)
	}
	single := !info.IsDir()
	if single {
		if err := watcher.Add(filepath.Dir(root)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
	} else if err := addTree(watcher, root); err != nil {
		return err
	}

	allowed := NormalizeExtensions(exts)
	pending := map[string]struct{}{}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && !single {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(info.Name()) {
					_ = addTree(watcher, event.Name)
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if single {
				if filepath.Clean(event.Name) != filepath.Clean(root) {
					continue
				}
			} else if !Matches(event.Name, allowed) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", root, err)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			sort.Strings(changed)
			pending = map[string]struct{}{}
			onChange(changed)
		}
	}
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
