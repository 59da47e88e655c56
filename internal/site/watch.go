package site

import (
	"context"
	"path/filepath"
	"time"

	"braces.dev/errtrace"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"go.halloway.dev/website/internal/errdefer"
)

// Watcher reloads site content when its source files change.
//
// Edits tend to arrive in bursts (an rsync, an editor save writing
// several files), so reloads are debounced per directory.
type Watcher struct {
	// Log records reloads and their failures.
	Log *zap.Logger

	// Debounce is how long a directory must stay quiet
	// before its reload runs. Defaults to a second.
	Debounce time.Duration
}

func (w *Watcher) debounce() time.Duration {
	if w.Debounce > 0 {
		return w.Debounce
	}
	return time.Second
}

// Watch blocks, running the reload function of each watched directory
// whenever files inside it change. It returns when ctx ends.
//
// Reload failures are logged, not fatal:
// the previous content stays live until a later reload succeeds.
func (w *Watcher) Watch(ctx context.Context, reloads map[string]func() error) (err error) {
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errtrace.Errorf("start file watcher: %w", err)
	}
	defer errdefer.Close(&err, fw)

	dirs := make(map[string]func() error, len(reloads))
	for dir, reload := range reloads {
		if err := fw.Add(dir); err != nil {
			return errtrace.Errorf("watch %v: %w", dir, err)
		}
		dirs[filepath.Clean(dir)] = reload
	}

	// One timer covers all directories; pending tracks which of them
	// changed since it was last armed.
	pending := make(map[string]struct{})
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename) {
				continue
			}
			dir := filepath.Clean(filepath.Dir(ev.Name))
			if _, watched := dirs[dir]; !watched {
				continue
			}
			pending[dir] = struct{}{}
			timer.Reset(w.debounce())

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Error("file watcher error", zap.Error(err))

		case <-timer.C:
			for dir := range pending {
				start := time.Now()
				if err := dirs[dir](); err != nil {
					log.Error("could not reload content",
						zap.String("dir", dir),
						zap.Error(err))
					continue
				}
				log.Info("content reloaded",
					zap.String("dir", dir),
					zap.Duration("took", time.Since(start)))
			}
			clear(pending)
		}
	}
}
