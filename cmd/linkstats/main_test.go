package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"hintnav/stats"
)

func seeded(t *testing.T) *stats.FileStore {
	t.Helper()
	store := stats.NewFileStore(filepath.Join(t.TempDir(), "linkstats.json"))
	err := store.Save(context.Background(), stats.Stats{
		"a.example": {"https://a.example/docs": 3, "https://a.example/": 1},
		"b.example": {"button:go::Go": 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestShow(t *testing.T) {
	store := seeded(t)
	var buf bytes.Buffer
	if err := show(context.Background(), &buf, store, ""); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", buf.String())
	}
	if !strings.Contains(lines[0], "https://a.example/docs") {
		t.Errorf("expected most clicked first, got %q", lines[0])
	}

	buf.Reset()
	if err := show(context.Background(), &buf, store, "b.example"); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "a.example") {
		t.Errorf("expected only b.example, got %q", buf.String())
	}
}

func TestForget(t *testing.T) {
	store := seeded(t)
	ctx := context.Background()
	if err := forget(ctx, store, "a.example"); err != nil {
		t.Fatalf("forget failed: %v", err)
	}
	s, _ := store.Load(ctx)
	if _, ok := s["a.example"]; ok {
		t.Error("expected host removed")
	}
	if err := forget(ctx, store, "a.example"); err == nil {
		t.Error("expected error forgetting an unknown host")
	}
}

func TestMigrate(t *testing.T) {
	store := seeded(t)
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "linkstats.db")
	if err := migrate(ctx, store, "sqlite", dbPath); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	db, err := stats.OpenSQL(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	s, err := db.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.Count("a.example", "https://a.example/docs") != 3 {
		t.Errorf("expected counts copied, got %v", s)
	}
}

func TestWhere(t *testing.T) {
	store := seeded(t)
	var buf bytes.Buffer
	if err := where(&buf, store); err != nil {
		t.Fatalf("where failed: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != store.Path() || filepath.Base(got) != "linkstats.json" {
		t.Errorf("unexpected path %q", got)
	}

	path := filepath.Join(t.TempDir(), "stats.db")
	db, err := stats.OpenSQL(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	buf.Reset()
	if err := where(&buf, db); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != path {
		t.Errorf("expected %s, got %q", path, buf.String())
	}
}
