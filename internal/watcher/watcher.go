// Package watcher adapts fsnotify filesystem events into
// cellstate.CellState.InvalidatePath calls. It is an external collaborator
// that reports changed paths — cellstate itself has no knowledge of
// fsnotify or of the real filesystem.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/jboley/buck/internal/cellstate"
)

// Watcher recursively watches a cell's root and invalidates paths in the
// cell state as changes arrive.
type Watcher struct {
	log   *logrus.Entry
	state *cellstate.CellState
	fsw   *fsnotify.Watcher
}

// New starts watching root (recursively) and returns a Watcher whose Run
// loop drives invalidations into state. Run blocks until its context is done
// or the watcher is closed; callers call Close when the cell is torn down.
func New(state *cellstate.CellState, root string, log *logrus.Entry) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{log: log, state: state, fsw: fsw}, nil
}

// Run drains filesystem events until ctx is done or the watcher is closed.
// Every Create/Write/Remove/Rename event invalidates the event's path with
// invalidate_manifests=true; Chmod-only events are ignored since they never
// change parse results.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("watcher error")
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	count := w.state.InvalidatePath(cellstate.AbsPath(ev.Name), true)
	w.log.WithFields(logrus.Fields{
		"path":        ev.Name,
		"op":          ev.Op.String(),
		"invalidated": count,
	}).Debug("invalidated path")

	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(ev.Name); err != nil {
				w.log.WithError(err).Warn("failed to watch new directory")
			}
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
