package canvas

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// ReloadCallback is called after the watched document was reloaded.
type ReloadCallback func(path string)

// Watch reloads the document at path whenever the host rewrites it, until
// ctx is cancelled. The parent directory is watched so that
// write-to-temp-then-rename saves are seen too. Bursts of events are
// debounced into one reload.
func (s *Source) Watch(ctx context.Context, path string, logger *slog.Logger, cb ReloadCallback) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("document", abs))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(reloadDebounce)
			timerCh = timer.C
		} else {
			timer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			if err := s.LoadFile(abs); err != nil {
				logger.Warn("watcher: reload failed", slog.String("document", abs), slog.String("error", err.Error()))
				continue
			}
			logger.Debug("watcher: document reloaded", slog.String("document", abs))
			if cb != nil {
				cb(abs)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
