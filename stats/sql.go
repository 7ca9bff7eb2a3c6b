package stats

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	name  TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQLStore keeps statistics as a named record in an SQLite key-value table.
type SQLStore struct {
	db   *sql.DB
	path string
}

// OpenSQL opens (creating if needed) the SQLite database at path.
// Use ":memory:" for a throwaway store.
func OpenSQL(path string) (*SQLStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("stats: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("stats: open: %w", err)
	}
	// Each connection to :memory: is its own database.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range append(pragmas, schema) {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("stats: %s: %w", p, err)
		}
	}
	return &SQLStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Load reads the statistics record. A missing record is empty.
func (s *SQLStore) Load(ctx context.Context) (Stats, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE name = ?`, RecordName).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return Stats{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stats: load: %w", err)
	}
	st, err := decode([]byte(value))
	if err != nil {
		return nil, fmt.Errorf("stats: decode: %w", err)
	}
	return st, nil
}

// Save replaces the statistics record.
func (s *SQLStore) Save(ctx context.Context, st Stats) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		RecordName, string(data))
	if err != nil {
		return fmt.Errorf("stats: save: %w", err)
	}
	return nil
}
