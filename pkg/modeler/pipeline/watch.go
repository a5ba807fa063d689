package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits after the last export change
// before calling back.
const DefaultDebounce = 2 * time.Second

// Watch calls fn whenever exports are created or written in the export
// directory. Bursts of events closer together than debounce produce a single
// call. Errors from fn are logged and watching continues. Watch returns when
// ctx is done.
func (p *Pipeline) Watch(ctx context.Context, debounce time.Duration, fn func(context.Context) error) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	dir := p.cfg.Dirs.SpecialExports
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	p.log.Info("watching for exports", "dir", dir, "debounce", debounce.String())

	// nil until a change arrives, so the select never fires without one
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isExportChange(ev) {
				continue
			}
			p.log.Debug("export changed", "file", ev.Name, "op", ev.Op.String())
			fire = time.After(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.log.Warn("watcher error", "error", err)

		case <-fire:
			fire = nil
			if err := fn(ctx); err != nil {
				p.log.Error("pipeline run after export change failed", "error", err)
			}
		}
	}
}

// isExportChange reports whether ev creates or rewrites a visible file.
func isExportChange(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return false
	}
	info, err := os.Stat(ev.Name)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
