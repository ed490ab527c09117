// Package watch re-runs a callback for files that change on disk.
package watch

import (
	"context"
	"path/filepath"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"transpipe/internal/logging"
)

const DefaultDebounce = 100 * time.Millisecond

type ChangeFunc func(ctx context.Context, path string) error

// Watcher watches the parent directories of a fixed file set, since editors
// often replace files by rename.
type Watcher struct {
	files    map[string]bool
	onChange ChangeFunc
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

func New(files []string, onChange ChangeFunc, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	set := make(map[string]bool, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, errors.Wrapf(err, "watch %s", f)
		}
		set[abs] = true
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "watcher")
	}
	return &Watcher{files: set, onChange: onChange, debounce: debounce, fsw: fsw}, nil
}

// Run blocks until ctx is done. Changes arriving within the debounce window
// are coalesced into one callback per file.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	log := logging.Component("watch")

	dirs := make(map[string]bool)
	for f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for d := range dirs {
		if err := w.fsw.Add(d); err != nil {
			return errors.Wrapf(err, "watch %s", d)
		}
	}
	log.Info("watching", "files", len(w.files), "dirs", len(dirs))

	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil || !w.files[abs] {
				continue
			}
			log.Debug("change", "file", abs, "op", ev.Op.String())
			pending[abs] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Error("watcher", "err", err)

		case <-fire:
			fire = nil
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			for _, p := range paths {
				if err := w.onChange(ctx, p); err != nil {
					log.Error("rebuild failed", "file", p, "err", err)
				}
			}
		}
	}
}
