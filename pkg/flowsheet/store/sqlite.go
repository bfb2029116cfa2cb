package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Tegakist/DSS/pkg/flowsheet/models"
)

// SQLiteStore keeps record lists in a SQLite database, one row per record
// holding its JSON document. Several lists can share a database under
// different keys.
type SQLiteStore struct {
	db  *sql.DB
	key string
	mu  sync.RWMutex
}

// OpenSQLite opens (and migrates) the database at dbPath and stores the
// list under key. An empty key uses DefaultKey. Use ":memory:" for a
// throwaway database.
func OpenSQLite(dbPath, key string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if key == "" {
		key = DefaultKey
	}

	s := &SQLiteStore{db: db, key: key}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Scope returns a store for the list under key in the same database.
// Closing the parent closes the shared connection.
func (s *SQLiteStore) Scope(key string) Store {
	if key == "" {
		key = DefaultKey
	}
	return &SQLiteStore{db: s.db, key: key}
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		store_key TEXT NOT NULL,
		position INTEGER NOT NULL,
		id TEXT NOT NULL,
		status TEXT NOT NULL,
		doc TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (datetime('now')),
		PRIMARY KEY (store_key, position)
	);

	CREATE INDEX IF NOT EXISTS idx_records_key_status
		ON records(store_key, status);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Load(ctx context.Context) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT doc FROM records WHERE store_key = ? ORDER BY position", s.key)
	if err != nil {
		return nil, fmt.Errorf("store: query records: %w", err)
	}
	defer rows.Close()

	records := []models.Record{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("store: scan record: %w", err)
		}
		var r models.Record
		if err := json.Unmarshal([]byte(doc), &r); err != nil {
			return nil, fmt.Errorf("store: decode record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return records, nil
}

// Save replaces the list in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, records []models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM records WHERE store_key = ?", s.key); err != nil {
		return fmt.Errorf("store: clear records: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO records (store_key, position, id, status, doc) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("store: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		doc, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("store: encode record %q: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, s.key, i, r.ID, string(r.Status), string(doc)); err != nil {
			return fmt.Errorf("store: insert record %q: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// CountByStatus returns how many saved records carry each status.
func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM records WHERE store_key = ? GROUP BY status", s.key)
	if err != nil {
		return nil, fmt.Errorf("store: query counts: %w", err)
	}
	defer rows.Close()

	counts := map[models.Status]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("store: scan count: %w", err)
		}
		counts[models.Status(status)] = n
	}
	return counts, rows.Err()
}
