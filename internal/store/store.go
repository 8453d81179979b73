package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrNewerLedger is returned by Open for a ledger written by a newer schema.
var ErrNewerLedger = errors.New("ledger schema is newer than this build")

// migration upgrades a ledger to version.
type migration struct {
	version int
	name    string
	stmt    string
}

// migrations run in order on ledgers whose user_version is below theirs.
// schema.sql holds only the version-0 tables.
var migrations = []migration{
	{1, "task lookup index", `CREATE INDEX IF NOT EXISTS idx_attempts_task ON attempts(property, version)`},
	{2, "run listing index", `CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at, id)`},
}

// currentSchemaVersion is the user_version of a fully migrated ledger.
var currentSchemaVersion = migrations[len(migrations)-1].version

// pragmas configure every connection: WAL for readers during a run, a busy
// timeout for a concurrent history query, and enforced run references.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Store is the attempt ledger: one row per run and one per attempt, in
// a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens the ledger at path, creating and migrating it as needed.
// ":memory:" gives a private in-memory ledger.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	// One connection: a single writer, and ":memory:" stays one database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initialize(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func initialize(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return migrate(db)
}

// migrate applies every migration above the ledger's user_version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("%w (version %d, supported %d)", ErrNewerLedger, version, currentSchemaVersion)
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("set user_version %d: %w", m.version, err)
		}
	}
	return nil
}

// Close closes the ledger.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// pragma returns the current value of a pragma.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("query %s: %w", name, err)
	}
	return value, nil
}
