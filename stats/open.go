package stats

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Open returns the store for backend ("json" or "sqlite") at path, or at
// the backend's default location when path is empty. The returned func
// releases the store.
func Open(backend, path string) (Store, func() error, error) {
	if path == "" {
		def, err := DefaultPath()
		if err != nil {
			return nil, nil, err
		}
		path = def
		if backend == "sqlite" {
			path = strings.TrimSuffix(def, filepath.Ext(def)) + ".db"
		}
	}

	switch backend {
	case "json", "":
		return NewFileStore(path), func() error { return nil }, nil
	case "sqlite":
		s, err := OpenSQL(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown stats backend %q", backend)
}
