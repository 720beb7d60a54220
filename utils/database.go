package utils

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT, -- AUTOINCREMENT keeps ids from being reused
	title TEXT NOT NULL,
	description TEXT,
	completed INTEGER NOT NULL DEFAULT 0
);
`

// Database is the handle to the sqlite file holding the tasks table.
type Database struct {
	db *sql.DB
}

// OpenDB opens the sqlite database at path and checks that it is reachable.
// It does not create the schema; call Initialize once at startup.
func OpenDB(ctx context.Context, path string) (*Database, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &Database{db: db}, nil
}

// Initialize creates the tasks table if it does not exist yet.
func (d *Database) Initialize(ctx context.Context) error {
	if d == nil || d.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	return nil
}

// Conn acquires a connection for one unit of work. The caller must Close it.
func (d *Database) Conn(ctx context.Context) (*sql.Conn, error) {
	if d == nil || d.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return conn, nil
}

// Ping reports whether the database is still reachable.
func (d *Database) Ping(ctx context.Context) error {
	if d == nil || d.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	return d.db.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (d *Database) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}
