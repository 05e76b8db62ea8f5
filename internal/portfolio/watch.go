package portfolio

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"pkt.systems/pslog"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 250 * time.Millisecond

// Watch calls onChange after the content file at path is written, replaced or
// removed, at most once per debounce window. It watches the parent directory so
// atomic renames are seen. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger := pslog.Ctx(ctx).With("path", abs)
	logger.Info("content watch started")

	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			logger.Debug("content watch stopped")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			logger.Trace("content event", "op", event.Op.String())
			pending = time.After(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("content watch error", "err", err)
		case <-pending:
			pending = nil
			logger.Info("content changed")
			onChange()
		}
	}
}
