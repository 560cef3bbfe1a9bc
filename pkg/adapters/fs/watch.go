package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/scribble/pkg/core"
)

// Watch reports changes to scribble files whose relative path matches
// pattern (doublestar syntax, "" means every file). Bursts of filesystem
// notifications for one file are coalesced and classified by the file's
// state once it settles. The channel is closed when ctx is cancelled.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "**/*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := r.watchTree(watcher, r.Path); err != nil {
		watcher.Close()
		return nil, err
	}

	out := make(chan core.Event, 64)
	deb := newDebouncer(r.config.Debounce)
	r.setWatcherActive(true)

	ctx, cancel := context.WithCancel(ctx)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer func() {
			cancel()
			watcher.Close()
			deb.Stop()
			r.setWatcherActive(false)
			close(out)
		}()
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				r.handleNotify(ctx, watcher, deb, pattern, ev, out)
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				r.reportWatchError(err)
			}
		}
	}, lifecycle.WithErrorHandler(r.reportWatchError))

	r.logger.Debug("watching vault", "path", r.Path, "pattern", pattern)
	return out, nil
}

func (r *Repository) handleNotify(ctx context.Context, w *fsnotify.Watcher, deb *debouncer, pattern string, ev fsnotify.Event, out chan<- core.Event) {
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if r.skipDir(info.Name()) {
				return
			}
			if err := r.watchTree(w, ev.Name); err != nil {
				r.reportWatchError(err)
			}
			r.triggerTree(ctx, deb, pattern, ev.Name, out)
			return
		}
	}

	relPath, ok := r.relPath(ev.Name)
	if !ok {
		// A removed directory takes its known files with it.
		if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
			if rel, err := filepath.Rel(r.Path, ev.Name); err == nil {
				prefix := filepath.ToSlash(rel) + "/"
				for _, p := range r.pathsUnder(prefix) {
					r.schedule(ctx, deb, pattern, p, out)
				}
			}
		}
		return
	}
	if ev.Op == fsnotify.Chmod {
		return
	}
	r.schedule(ctx, deb, pattern, relPath, out)
}

func (r *Repository) schedule(ctx context.Context, deb *debouncer, pattern, relPath string, out chan<- core.Event) {
	if match, _ := doublestar.Match(pattern, relPath); !match {
		return
	}
	deb.Trigger(relPath, func() {
		for _, ev := range r.settle(relPath) {
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	})
}

// settle classifies the current state of relPath against what the repository
// last knew about it.
func (r *Repository) settle(relPath string) []core.Event {
	prevID, known := r.idAt(relPath)

	s, err := r.readFile(relPath)
	if errors.Is(err, os.ErrNotExist) {
		r.cache.Delete(relPath)
		id := prevID
		if !known {
			id = pathID(relPath)
		} else {
			r.forget(prevID)
		}
		return []core.Event{core.NewEvent(core.EventDelete, id)}
	}
	if err != nil {
		r.logger.Warn("ignoring unreadable change", "path", relPath, "error", err)
		return nil
	}

	switch {
	case !known:
		r.remember(s.ID, relPath)
		return []core.Event{core.NewEvent(core.EventCreate, s.ID)}
	case prevID != s.ID:
		r.forget(prevID)
		r.remember(s.ID, relPath)
		return []core.Event{core.NewEvent(core.EventDelete, prevID), core.NewEvent(core.EventCreate, s.ID)}
	default:
		return []core.Event{core.NewEvent(core.EventModify, s.ID)}
	}
}

// watchTree adds dir and every directory below it to w.
func (r *Repository) watchTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != r.Path && r.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// triggerTree schedules every managed file below a newly created directory,
// since files may land before the directory watch is in place.
func (r *Repository) triggerTree(ctx context.Context, deb *debouncer, pattern, dir string, out chan<- core.Event) {
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if relPath, ok := r.relPath(path); ok {
			r.schedule(ctx, deb, pattern, relPath, out)
		}
		return nil
	})
}

func (r *Repository) pathsUnder(prefix string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, p := range r.paths {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	return out
}

func (r *Repository) reportWatchError(err error) {
	r.logger.Error("watcher error", "path", r.Path, "error", err)
	if r.config.ErrorHandler != nil {
		r.config.ErrorHandler(err)
	}
}
