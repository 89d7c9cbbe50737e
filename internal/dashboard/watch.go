package dashboard

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Debounce is how long Watch waits for a burst of writes to settle.
var Debounce = 250 * time.Millisecond

// Watch regenerates out whenever a CSV in the data directory or an item
// file changes, until ctx is done. onBuild, if set, is called after every
// rebuild with its error.
func (g *Generator) Watch(ctx context.Context, out string, onBuild func(error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(g.Store.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", g.Store.Dir, err)
	}
	if g.ItemsDir != "" {
		if err := w.Add(g.ItemsDir); err != nil {
			g.log().Warn("items directory not watched", zap.String("path", g.ItemsDir), zap.Error(err))
		}
	}

	absOut, _ := filepath.Abs(out)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, absOut) {
				continue
			}
			g.log().Debug("backlog changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			timer.Reset(Debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			g.log().Warn("watch error", zap.Error(err))
		case <-timer.C:
			err := g.Generate(out)
			if err != nil {
				g.log().Error("dashboard rebuild failed", zap.Error(err))
			}
			if onBuild != nil {
				onBuild(err)
			}
		}
	}
}

func relevant(ev fsnotify.Event, absOut string) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	if abs, err := filepath.Abs(ev.Name); err == nil && abs == absOut {
		return false
	}
	switch filepath.Ext(ev.Name) {
	case ".csv", ".md":
		return true
	}
	return false
}
