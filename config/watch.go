package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the settings file whenever it changes on disk and passes
// every valid result to onChange. The directory is watched rather than the
// file so that editors that replace the file by rename are still seen.
// Watch returns after setup; the watcher stops when ctx is done.
func Watch(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, onChange func(*Settings)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return err
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	reload := func() {
		s, err := Load(abs)
		if err != nil {
			if logger != nil {
				logger.Warn("settings reload rejected", "path", abs, "error", err)
			}
			return
		}
		if logger != nil {
			logger.Info("settings reloaded", "path", abs)
		}
		onChange(s)
	}
	go func() {
		defer w.Close()
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(e.Name) != abs {
					continue
				}
				if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, reload)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				if logger != nil {
					logger.Error("settings watcher error", "error", err)
				}
			}
		}
	}()
	return nil
}
