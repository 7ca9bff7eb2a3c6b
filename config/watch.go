package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce batches the several events editors produce for one save.
const reloadDebounce = 200 * time.Millisecond

// Watch reloads the config file at path whenever it changes and delivers
// each valid result on the returned channel. Invalid files are logged and
// skipped. The channel is closed once ctx is done.
//
// The containing directory is watched rather than the file, since many
// editors save by replacing the file.
func Watch(ctx context.Context, path string, logger *slog.Logger) (<-chan *Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}

	out := make(chan *Config)
	go watch(ctx, w, filepath.Clean(path), logger, out)
	return out, nil
}

func watch(ctx context.Context, w *fsnotify.Watcher, path string, logger *slog.Logger, out chan<- *Config) {
	defer close(out)
	defer w.Close()

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path || !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			fire = time.After(reloadDebounce)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("config: watch error", "error", err)

		case <-fire:
			fire = nil
			cfg, err := LoadFile(path)
			if err != nil {
				logger.Warn("config: reload failed, keeping current", "path", path, "error", err)
				continue
			}
			logger.Info("config: reloaded", "path", path)
			select {
			case out <- cfg:
			case <-ctx.Done():
				return
			}
		}
	}
}
