// Package store persists analyses and the credential slot in SQLite.
//
// The default build uses mattn/go-sqlite3 (cgo). Build with -tags purego to
// use the pure-Go modernc.org/sqlite driver instead.
package store

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS analyses (
	selection_id TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL DEFAULT 'baseline',
	metadata     TEXT NOT NULL,
	checksum     TEXT NOT NULL DEFAULT '',
	image_path   TEXT NOT NULL DEFAULT '',
	updated_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_updated ON analyses(updated_at);

CREATE TABLE IF NOT EXISTS credentials (
	slot       TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Repository is the persistence surface used by the session and the
// HTTP/MCP bridges.
type Repository interface {
	SaveAnalysis(ctx context.Context, a Analysis) (*Analysis, error)
	GetAnalysis(ctx context.Context, selectionID string) (*Analysis, error)
	ListAnalyses(ctx context.Context, limit, offset int) ([]Analysis, int, error)
	DeleteAnalysis(ctx context.Context, selectionID string) error
	ImagePaths(ctx context.Context) (map[string]struct{}, error)
}

// Verify *DB satisfies Repository at compile time.
var _ Repository = (*DB)(nil)

// DB wraps a sql.DB with store-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(path string) (*DB, error) {
	conn, err := sql.Open(driverName, dsn(path))
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
