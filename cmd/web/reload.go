package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 150 * time.Millisecond

// templateWatcher reparses the renderer when a .tmpl file under dir changes.
// Editors tend to emit several events per save, so reloads are debounced.
type templateWatcher struct {
	dir      string
	r        *renderer
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
	reloaded chan struct{}
}

func newTemplateWatcher(dir string, r *renderer, logger *zap.Logger) (*templateWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("template watcher: %w", err)
	}
	tw := &templateWatcher{
		dir:      dir,
		r:        r,
		logger:   logger,
		watcher:  w,
		debounce: reloadDebounce,
	}
	// fsnotify is not recursive
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("template watcher: watch %s: %w", dir, err)
	}
	return tw, nil
}

// Run blocks until ctx is done. A failed reparse keeps the previous templates.
func (tw *templateWatcher) Run(ctx context.Context) error {
	defer func() { _ = tw.watcher.Close() }()

	timer := time.NewTimer(tw.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-tw.watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && isDir(ev.Name) {
				_ = tw.watcher.Add(ev.Name)
			}
			if !strings.HasSuffix(ev.Name, ".tmpl") || ev.Op == fsnotify.Chmod {
				continue
			}
			timer.Reset(tw.debounce)
		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return nil
			}
			tw.logger.Warn("template watcher error", zap.Error(err))
		case <-timer.C:
			if err := tw.r.parse(); err != nil {
				tw.logger.Error("template reload failed", zap.Error(err))
				continue
			}
			tw.logger.Info("templates reloaded", zap.String("dir", tw.dir))
			if tw.reloaded != nil {
				select {
				case tw.reloaded <- struct{}{}:
				default:
				}
			}
		}
	}
}

func isDir(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.IsDir()
}
