// Package sqlite implements the repository interfaces on an embedded SQLite
// database via database/sql.
//
// modernc.org/sqlite is a pure-Go SQLite build — no CGo, no external server,
// a single file (or ":memory:" in tests). WAL mode keeps reads flowing while
// a write is in progress, which matters once every request hits the store.
//
// The two uniqueness invariants of the caregiver directory —
// external_subject_id and email each unique across all caregivers — are
// enforced here by unique indexes, not assumed by the code above. The
// reconciliation race in the service layer is only safe because of that.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces. The server owns the lifecycle: New opens and migrates, Close
// flushes the WAL and releases the file lock.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for tests.
//
// The pragmas ride in the DSN because journal_mode, foreign_keys, and
// busy_timeout are per-connection settings in sqlite: an Exec would configure
// only whichever pooled connection happened to run it. busy_timeout makes a
// writer wait for the lock instead of failing immediately with SQLITE_BUSY,
// so concurrent writes (two racing heals, parallel member writes) serialize
// rather than error.
func New(dbPath string) (*DB, error) {
	dsn := "file:" + dbPath +
		"?_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(1)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if dbPath == ":memory:" {
		// Each connection to :memory: opens its own empty database; keep the
		// pool at one connection so tests see a single store.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS caregivers (
			id                  TEXT PRIMARY KEY,
			external_subject_id TEXT NOT NULL,
			email               TEXT NOT NULL,
			name                TEXT NOT NULL,
			created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_caregivers_subject ON caregivers(external_subject_id);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_caregivers_email ON caregivers(email);
	`)
	if err != nil {
		return fmt.Errorf("creating caregivers table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS members (
			id           TEXT PRIMARY KEY,
			owner_id     TEXT NOT NULL REFERENCES caregivers(id),
			first_name   TEXT NOT NULL,
			last_name    TEXT NOT NULL,
			relationship TEXT NOT NULL,
			birth_year   INTEGER NOT NULL,
			status       TEXT NOT NULL DEFAULT 'active',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_members_owner_id ON members(owner_id);
	`)
	if err != nil {
		return fmt.Errorf("creating members table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on
// the given table.column. modernc.org/sqlite exposes constraint failures
// only through the error text, e.g.
// "constraint failed: UNIQUE constraint failed: caregivers.email (2067)".
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}
