package stats

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatsIncrement(t *testing.T) {
	s := Stats{}
	s.Increment("example.com", "https://example.com/a")
	s.Increment("example.com", "https://example.com/a")
	if got := s.Count("example.com", "https://example.com/a"); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
	if got := s.Count("other.com", "https://example.com/a"); got != 0 {
		t.Errorf("expected 0 for another host, got %d", got)
	}
}

func TestStatsClone(t *testing.T) {
	s := Stats{}
	s.Increment("h", "k")
	c := s.Clone()
	c.Increment("h", "k")
	if s.Count("h", "k") != 1 {
		t.Error("clone shares state with original")
	}
}

func TestStatsRanked(t *testing.T) {
	s := Stats{
		"b.example": {"x": 1},
		"a.example": {"low": 1, "high": 5, "also-low": 1},
	}
	if hosts := s.Hosts(); len(hosts) != 2 || hosts[0] != "a.example" {
		t.Errorf("unexpected hosts %v", hosts)
	}
	got := s.Ranked("a.example")
	want := []Entry{{"high", 5}, {"also-low", 1}, {"low", 1}}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	if len(s.Ranked("none.example")) != 0 {
		t.Error("expected no entries for unknown host")
	}
}

func TestFileStoreMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "none.json"))
	s, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(s) != 0 {
		t.Errorf("expected empty stats, got %v", s)
	}
}

func TestFileStoreSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "linkstats.json")
	store := NewFileStore(path)

	s := Stats{}
	s.Increment("example.com", "button:save::Save")
	if err := store.Save(context.Background(), s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Count("example.com", "button:save::Save") != 1 {
		t.Errorf("expected count 1, got %v", loaded)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linkstats.json")
	os.WriteFile(path, []byte("{not json"), 0644)

	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Error("expected error for corrupt file")
	}
}

func TestSQLStoreSaveLoad(t *testing.T) {
	store, err := OpenSQL(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("OpenSQL failed: %v", err)
	}
	defer store.Close()

	s, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(s) != 0 {
		t.Errorf("expected empty stats, got %v", s)
	}

	s.Increment("example.com", "https://example.com/a")
	if err := store.Save(context.Background(), s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	s.Increment("example.com", "https://example.com/a")
	if err := store.Save(context.Background(), s); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := loaded.Count("example.com", "https://example.com/a"); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}

func TestSQLStoreMemory(t *testing.T) {
	store, err := OpenSQL(":memory:")
	if err != nil {
		t.Fatalf("OpenSQL failed: %v", err)
	}
	defer store.Close()

	s := Stats{}
	s.Increment("h", "k")
	if err := store.Save(context.Background(), s); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Count("h", "k") != 1 {
		t.Errorf("expected 1, got %v", loaded)
	}
}

func TestRecorderRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "linkstats.json"))

	r := NewRecorder(context.Background(), store, quietLogger())
	if err := r.Record(context.Background(), "example.com", "https://example.com/a"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if r.Count("example.com", "https://example.com/a") != 1 {
		t.Error("expected in-memory count 1")
	}

	reloaded := NewRecorder(context.Background(), store, quietLogger())
	if got := reloaded.Count("example.com", "https://example.com/a"); got != 1 {
		t.Errorf("expected persisted count 1, got %d", got)
	}
}

type failingStore struct{}

func (failingStore) Load(ctx context.Context) (Stats, error) { return nil, errors.New("boom") }
func (failingStore) Save(ctx context.Context, s Stats) error { return errors.New("boom") }

func TestRecorderDegradesOnStoreFailure(t *testing.T) {
	r := NewRecorder(context.Background(), failingStore{}, quietLogger())
	if r.Count("h", "k") != 0 {
		t.Error("expected empty stats after failed load")
	}
	if err := r.Record(context.Background(), "h", "k"); err == nil {
		t.Error("expected save error to be returned")
	}
	if r.Count("h", "k") != 1 {
		t.Error("expected in-memory count to survive a failed save")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, closeFn, err := Open("json", filepath.Join(dir, "stats.json"))
	if err != nil {
		t.Fatalf("Open json failed: %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("expected FileStore, got %T", s)
	}
	closeFn()

	s, closeFn, err = Open("sqlite", filepath.Join(dir, "stats.db"))
	if err != nil {
		t.Fatalf("Open sqlite failed: %v", err)
	}
	if _, ok := s.(*SQLStore); !ok {
		t.Errorf("expected SQLStore, got %T", s)
	}
	if err := closeFn(); err != nil {
		t.Errorf("close failed: %v", err)
	}

	if _, _, err := Open("redis", ""); err == nil {
		t.Error("expected error for unknown backend")
	}
}
