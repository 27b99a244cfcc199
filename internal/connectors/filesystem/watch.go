package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docrag/internal/logger"
)

// Watch calls fn with the absolute path of every matching file that is
// created or written under the root, once it has been quiet for the settle
// period. Directories created while watching are watched too. Watch blocks
// until ctx is done.
func (s *Source) Watch(ctx context.Context, fn func(path string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := s.addTree(w, s.root); err != nil {
		return err
	}

	tick := time.NewTicker(s.settle / 2)
	defer tick.Stop()

	pending := make(map[string]time.Time)
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && s.isNewDir(ev.Name) {
				if err := s.addTree(w, ev.Name); err != nil {
					logger.Warn("Watching %s: %v", ev.Name, err)
				}
				continue
			}
			if path, ok := s.handleEvent(ev); ok {
				pending[path] = time.Now()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error: %v", err)

		case now := <-tick.C:
			for path, at := range pending {
				if now.Sub(at) < s.settle {
					continue
				}
				delete(pending, path)
				fn(path)
			}
		}
	}
}

// handleEvent returns the file to report for an event. Removes, renames
// away and permission changes report nothing.
func (s *Source) handleEvent(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return "", false
	}
	info, err := os.Stat(ev.Name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	if !s.Match(ev.Name) {
		return "", false
	}
	return ev.Name, true
}

func (s *Source) isNewDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir() && !s.skipDir(path)
}

// addTree watches dir and every non-skipped directory below it.
func (s *Source) addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != s.root && s.skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		logger.Debug("Watching %s", path)
		return nil
	})
}
