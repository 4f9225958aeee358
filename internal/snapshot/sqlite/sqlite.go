// Package sqlite stores snapshots in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mdmarufa/cloudex/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	saved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	data     TEXT NOT NULL
)`

const keep = 10

// Store keeps a short history of snapshots; Read returns the newest.
type Store struct {
	db   *sql.DB
	path string
}

// New opens (or creates) the database file at path.
func New(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}

	logging.Info("opened SQLite snapshot store", zap.String("path", path))
	return &Store{db: db, path: path}, nil
}

// Write inserts a snapshot and prunes old ones.
func (s *Store) Write(ctx context.Context, data []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO snapshots (data) VALUES (?)`, string(data)); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM snapshots
		WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`, keep); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return tx.Commit()
}

// Read returns the newest snapshot.
func (s *Store) Read(ctx context.Context) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no snapshot in %s: %w", s.path, fs.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	return []byte(data), nil
}

// Count returns how many snapshots are stored.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n)
	return n, err
}

// Type returns "sqlite".
func (s *Store) Type() string { return "sqlite" }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
