// Package cache implements the geocode and distance persistent caches (A5),
// backed by a single SQLite file opened in WAL mode with a versioned
// migration table, the same shape the corpus uses for its own local
// SQLite-backed store.
package cache

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps the shared SQLite connection both caches read and write
// through.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cache db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}
	return s, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	version := 0
	s.db.QueryRow(`SELECT version FROM schema_version ORDER BY version DESC LIMIT 1`).Scan(&version)

	if version < 1 {
		_, err := s.db.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS geocode_cache (
				address  TEXT PRIMARY KEY,
				lat      REAL NOT NULL,
				lon      REAL NOT NULL,
				resolved INTEGER NOT NULL,
				source   TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS distance_cache (
				key      TEXT PRIMARY KEY,
				dist_km  REAL NOT NULL,
				time_min REAL NOT NULL
			);

			INSERT INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}
