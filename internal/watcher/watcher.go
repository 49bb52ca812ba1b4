// Package watcher keeps the catalog current while bwfind runs in watch mode.
//
// Filesystem events from the library roots are debounced into a quiet-period
// window; when the window closes, one incremental index run reconciles
// whatever changed. The run itself does change detection by fingerprint, so
// the watcher only needs to know that something happened, not what.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReindexFunc triggers one incremental index run.
type ReindexFunc func(ctx context.Context) error

// Watcher watches library roots and schedules debounced reindex runs.
type Watcher struct {
	roots    []string
	debounce time.Duration
	reindex  ReindexFunc
	log      *slog.Logger
}

// New builds a Watcher over the given roots. A zero debounce defaults to
// 500ms; shorter windows thrash the indexer during bulk file operations.
func New(roots []string, debounce time.Duration, reindex ReindexFunc, log *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		roots:    roots,
		debounce: debounce,
		reindex:  reindex,
		log:      log,
	}
}

// Watch blocks, reindexing on changes until ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	for _, root := range w.roots {
		if err := addRecursive(fsw, root); err != nil {
			w.log.Warn("cannot watch root", slog.String("root", root), slog.Any("error", err))
		}
	}

	// The timer is armed on the first relevant event and re-armed on each
	// subsequent one, so a burst of changes produces a single run.
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			// New directories must be watched before their contents settle.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addRecursive(fsw, event.Name)
				}
			}
			if !relevant(event) {
				continue
			}
			w.log.Debug("library change", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			if pending {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", slog.Any("error", err))

		case <-timer.C:
			pending = false
			if err := w.reindex(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.log.Error("reindex failed", slog.Any("error", err))
			}
		}
	}
}

// relevant reports whether an event should schedule a reindex: writes,
// creates, renames, and removals of non-hidden paths.
func relevant(event fsnotify.Event) bool {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}

// addRecursive watches dir and every directory below it. fsnotify watches
// are not recursive on any platform we support.
func addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
