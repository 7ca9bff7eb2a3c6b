package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps statistics in a JSON file.
type FileStore struct {
	path string
}

// DefaultPath returns the statistics file path under the user's config
// directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "hintnav", "linkstats.json"), nil
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads statistics from disk. A missing file is an empty record.
func (f *FileStore) Load(ctx context.Context) (Stats, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return Stats{}, nil
	}
	if err != nil {
		return nil, err
	}

	var record map[string]json.RawMessage
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.path, err)
	}
	s, err := decode(record[RecordName])
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.path, err)
	}
	return s, nil
}

// Save writes statistics to disk.
func (f *FileStore) Save(ctx context.Context, s Stats) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(map[string]Stats{RecordName: s}, "", "  ")
	if err != nil {
		return err
	}

	// Write via a temp file so a crash never leaves half a record.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
