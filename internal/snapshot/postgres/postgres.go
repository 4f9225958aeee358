// Package postgres stores snapshots in a PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/mdmarufa/cloudex/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS cloudex_snapshots (
	id       BIGSERIAL PRIMARY KEY,
	saved_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	data     JSONB NOT NULL
)`

// keep bounds the history kept in the table.
const keep = 10

// Store keeps a short history of snapshots; Read returns the newest.
type Store struct {
	db *sql.DB
}

// New connects to PostgreSQL and ensures the snapshot table exists.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}

	logging.Info("connected to PostgreSQL snapshot store")
	return &Store{db: db}, nil
}

// Write inserts a snapshot and prunes old ones.
func (s *Store) Write(ctx context.Context, data []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO cloudex_snapshots (data) VALUES ($1)`, string(data)); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	res, err := tx.ExecContext(ctx, `
		DELETE FROM cloudex_snapshots
		WHERE id NOT IN (SELECT id FROM cloudex_snapshots ORDER BY id DESC LIMIT $1)`, keep)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		logging.Debug("pruned old snapshots", zap.Int64("count", n))
	}
	return tx.Commit()
}

// Read returns the newest snapshot.
func (s *Store) Read(ctx context.Context) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM cloudex_snapshots ORDER BY id DESC LIMIT 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no snapshot stored: %w", fs.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	return []byte(data), nil
}

// Type returns "postgres".
func (s *Store) Type() string { return "postgres" }

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
