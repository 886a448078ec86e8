package kv

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLBackend keeps the key space in a single two-column table behind
// database/sql. The CLI opens it over the pure-Go sqlite driver; tests can
// hand it any *sql.DB.
type SQLBackend struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) a sqlite-backed SQLBackend at path.
func OpenSQLite(path string) (*SQLBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required for the sql backend")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	backend, err := NewSQLBackend(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return backend, nil
}

// NewSQLBackend wraps an existing database handle, creating the kv table if
// it does not exist.
func NewSQLBackend(db *sql.DB) (*SQLBackend, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}
	return &SQLBackend{db: db}, nil
}

// Get returns the value for key and whether it was present
func (s *SQLBackend) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

// Set stores value under key
func (s *SQLBackend) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		if isDatabaseFull(err) {
			return fmt.Errorf("setting %q: %w", key, ErrCapacityExceeded)
		}
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key
func (s *SQLBackend) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
}

// Keys enumerates every key currently present
func (s *SQLBackend) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT key FROM kv`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// Close releases the underlying database handle
func (s *SQLBackend) Close() error {
	return s.db.Close()
}

// isDatabaseFull matches the sqlite SQLITE_FULL error text; database/sql
// gives no portable error code for it.
func isDatabaseFull(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database or disk is full") || strings.Contains(msg, "SQLITE_FULL")
}
