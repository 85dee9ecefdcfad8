// Package store keeps imported feeds and run history in SQLite so list
// runs do not re-read the raw feeds.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// migrations are applied in order; version n is migrations[n-1].
var migrations = []string{schemaV1, schemaV2}

var currentSchemaVersion = len(migrations)

// Store persists imported feeds and run history
type Store struct {
	db *sql.DB
}

// OpenOptions holds options for opening a database
type OpenOptions struct {
	NetworkOptimized bool // database lives on a shared mount
}

// Open opens or creates the catalog database at path
func Open(path string) (*Store, error) {
	return OpenWithOptions(path, nil)
}

// OpenWithOptions opens or creates the catalog database and brings its
// schema up to date.
func OpenWithOptions(path string, opts *OpenOptions) (*Store, error) {
	if opts == nil {
		opts = &OpenOptions{}
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if opts.NetworkOptimized {
		if err := s.exec(
			"PRAGMA synchronous = NORMAL", // WAL makes this safe
			"PRAGMA temp_store = MEMORY",
			"PRAGMA cache_size = -32000", // ~32 MB
		); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to tune database for network storage: %w", err)
		}
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) exec(stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SQLiteVersion reports the linked SQLite library version, or "" if the
// driver cannot be opened.
func SQLiteVersion() string {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return ""
	}
	defer db.Close()

	var version string
	if err := db.QueryRow("SELECT sqlite_version()").Scan(&version); err != nil {
		return ""
	}
	return version
}

// CheckIntegrity runs PRAGMA integrity_check.
func (s *Store) CheckIntegrity() error {
	var result string
	if err := s.db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// migrate applies every pending migration in one transaction.
func (s *Store) migrate() error {
	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}
	if version >= currentSchemaVersion {
		return nil
	}

	return s.Transaction(func(tx *sql.Tx) error {
		for v := version + 1; v <= currentSchemaVersion; v++ {
			if _, err := tx.Exec(migrations[v-1]); err != nil {
				return fmt.Errorf("failed to apply schema v%d: %w", v, err)
			}
			if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", v); err != nil {
				return fmt.Errorf("failed to record schema v%d: %w", v, err)
			}
		}
		return nil
	})
}

// getSchemaVersion returns the applied schema version, 0 for a new file.
func (s *Store) getSchemaVersion() (int, error) {
	var tables int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'",
	).Scan(&tables)
	if err != nil || tables == 0 {
		return 0, err
	}

	var version int
	err = s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	return version, err
}

// Transaction executes a function within a transaction
func (s *Store) Transaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
