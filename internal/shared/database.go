package shared

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// NewDatabase opens a SQLite database at path (":memory:" for in-memory).
//
// File-backed databases get WAL journaling and a busy timeout so profile
// reads stay available while a sync transaction is writing. Foreign keys are
// enforced on every connection.
func NewDatabase(path string) (*sql.DB, error) {
	dsn := path + "?_foreign_keys=on"
	if path != ":memory:" && !strings.HasPrefix(path, "file::memory:") {
		dsn += "&_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// ConfigureDatabase applies connection pool limits from the database config.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
}
