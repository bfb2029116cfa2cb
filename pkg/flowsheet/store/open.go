package store

import (
	"path/filepath"
	"strings"
)

// Open picks a store implementation from the target path: ".db", ".sqlite"
// and ".sqlite3" open a SQLite database, anything else a JSON file. An
// empty path yields a MemoryStore. The returned close function releases
// the store.
func Open(path string) (Store, func() error, error) {
	noop := func() error { return nil }
	if path == "" {
		return NewMemoryStore(), noop, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		s, err := OpenSQLite(path, DefaultKey)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return NewFileStore(path), noop, nil
	}
}
