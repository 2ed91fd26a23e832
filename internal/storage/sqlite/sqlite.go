// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/debtrail/debtrail/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection serializes writers; SQLite cannot interleave them anyway
	// and concurrent connections would surface as SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// classifyConflict maps a driver error onto the identity uniqueness keys.
// modernc/sqlite reports violations as "UNIQUE constraint failed:
// <table>.<column>" (primary keys too), so matching the qualified column
// name is enough to tell which key collided. Non-uniqueness errors map to
// ConflictNone; the caller passes those through as fatal.
func classifyConflict(err error) storage.ConflictKind {
	if err == nil {
		return storage.ConflictNone
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") && !strings.Contains(msg, "constraint failed") {
		return storage.ConflictNone
	}
	switch {
	case strings.Contains(msg, "identities.id"):
		return storage.ConflictID
	case strings.Contains(msg, "identities.email"):
		return storage.ConflictEmail
	case strings.Contains(msg, "identities.phone_number"):
		return storage.ConflictPhone
	default:
		return storage.ConflictNone
	}
}

// nullable maps an empty string to NULL so partial unique indexes only
// apply to real values.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nullableInt maps a zero timestamp to NULL.
func nullableInt(v int64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}
