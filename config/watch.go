package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

type watchOptions struct {
	logger   *slog.Logger
	debounce time.Duration
}

// WatchOption configures Watch.
type WatchOption func(*watchOptions)

// WithLogger sets the logger used to report reloads.
func WithLogger(l *slog.Logger) WatchOption {
	return func(o *watchOptions) {
		o.logger = l
	}
}

// WithDebounce coalesces change events that arrive within d. Defaults to 100ms.
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		o.debounce = d
	}
}

// Watch reloads the file at path whenever it changes and passes the result to
// fn. Invalid files are reported through err and the previous definitions
// stay in effect for the caller. Watch blocks until ctx is done.
//
// The parent directory is watched so that editors replacing the file by
// rename are picked up.
func Watch(ctx context.Context, path string, fn func(*Config, error), opts ...WatchOption) error {
	o := watchOptions{logger: slog.Default(), debounce: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(&o)
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("config: watch %s: %w", path, err)
	}
	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(o.debounce)
			} else {
				timer.Reset(o.debounce)
			}
			reload = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			o.logger.WarnContext(ctx, "config watcher error", "path", path, "error", err)
		case <-reload:
			reload = nil
			cfg, err := Load(path)
			if err != nil {
				o.logger.WarnContext(ctx, "config reload failed", "path", path, "error", err)
			} else {
				o.logger.InfoContext(ctx, "config reloaded", "path", path,
					"enums", len(cfg.Enums), "composites", len(cfg.Composites))
			}
			fn(cfg, err)
		}
	}
}
