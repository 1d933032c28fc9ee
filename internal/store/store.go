package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS observation_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	observation_id TEXT NOT NULL,
	session_id    TEXT NOT NULL,
	prior         TEXT NOT NULL,
	subsequent    TEXT NOT NULL,
	score         INTEGER NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_observation_log_session
ON observation_log(session_id);
`
// #endregion schema

// #region store-struct
// Store owns the SQLite connection shared by the learning backend, the
// sequence table and the observation log.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// Open opens a SQLite database and runs migrations. Use ":memory:" for a
// throwaway store.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. learning, logging).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor
