package stats

import (
	"context"
	"log/slog"
	"sync"
)

// Recorder serves click counts from a snapshot loaded once per page and
// writes the record back after every recorded click.
type Recorder struct {
	mu     sync.Mutex
	store  Store
	stats  Stats
	logger *slog.Logger
}

// NewRecorder loads the current snapshot from store. Load failures are
// logged and treated as an empty record.
func NewRecorder(ctx context.Context, store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := store.Load(ctx)
	if err != nil {
		logger.Warn("stats: load failed, starting empty", "error", err)
		s = Stats{}
	}
	return &Recorder{store: store, stats: s, logger: logger}
}

// Count returns the click count for key on host.
func (r *Recorder) Count(host, key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats.Count(host, key)
}

// Record adds a click and persists the whole record.
func (r *Recorder) Record(ctx context.Context, host, key string) error {
	r.mu.Lock()
	r.stats.Increment(host, key)
	snapshot := r.stats.Clone()
	r.mu.Unlock()

	if err := r.store.Save(ctx, snapshot); err != nil {
		r.logger.Warn("stats: save failed", "host", host, "error", err)
		return err
	}
	return nil
}
