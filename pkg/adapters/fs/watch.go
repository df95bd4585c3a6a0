package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/canon/pkg/core"
)

// Watch observes the world directory and emits an event for every change to
// a path matching pattern (doublestar syntax, e.g. "domains/**"). The channel
// is closed when ctx is done or the watcher fails.
//
// Writes replace documents by renaming a temp file over them, which the OS
// reports as a create. Creates on paths that already existed are therefore
// emitted as MODIFY.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: invalid watch pattern %q", core.ErrValidation, pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := r.recursiveAdd(watcher, r.Path); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	existing, err := r.List(ctx, "")
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}
	known := make(map[string]bool, len(existing))
	for _, p := range existing {
		known[p] = true
	}

	events := make(chan core.Event, 64)
	r.setWatcherActive(true)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(events)
		defer r.setWatcherActive(false)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return nil

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				r.handleEvent(ctx, watcher, event, pattern, known, events)

			case wErr, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				r.config.Logger.Error("fsnotify error", "error", wErr)
				if r.config.ErrorHandler != nil {
					r.config.ErrorHandler(wErr)
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		if r.config.ErrorHandler != nil {
			r.config.ErrorHandler(fmt.Errorf("watcher panic: %w", err))
			return
		}
		r.config.Logger.Error("watcher panic", "error", err)
	}))

	return events, nil
}

func (r *Repository) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event, pattern string, known map[string]bool, out chan<- core.Event) {
	r.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, TempFilePrefix) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := r.recursiveAdd(watcher, event.Name); err != nil {
				r.config.Logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	rel, err := filepath.Rel(r.Path, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	eType := mapEventType(event)
	switch eType {
	case "":
		return
	case core.EventCreate:
		if known[rel] {
			eType = core.EventModify
		}
		known[rel] = true
	case core.EventModify:
		known[rel] = true
	case core.EventDelete:
		delete(known, rel)
	}

	if ok, _ := doublestar.Match(pattern, rel); !ok {
		return
	}

	now := time.Now()
	r.recordEvent(now)
	select {
	case out <- core.Event{Type: eType, Path: rel, Timestamp: now.Unix()}:
	case <-ctx.Done():
	}
}

func mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	default:
		return ""
	}
}

// recursiveAdd registers root and every non-hidden subdirectory.
func (r *Repository) recursiveAdd(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != r.Path && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}
