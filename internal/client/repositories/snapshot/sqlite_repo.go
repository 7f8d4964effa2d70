package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Open opens (or creates) the client database at dsn and makes sure the
// snapshot table exists.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			key   TEXT PRIMARY KEY,
			value BLOB NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init snapshot table: %w", err)
	}

	return db, nil
}

func (r *SQLiteRepository) Load(ctx context.Context) (*Snapshot, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM snapshots WHERE key = ?`, Key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot[%s]: %w", Key, err)
	}

	var s Snapshot
	if err := json.Unmarshal(value, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot[%s]: %w", Key, err)
	}
	return &s, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, s *Snapshot) error {
	value, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot[%s]: %w", Key, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, Key, value)
	if err != nil {
		return fmt.Errorf("failed to save snapshot[%s]: %w", Key, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key = ?`, Key)
	if err != nil {
		return fmt.Errorf("failed to clear snapshot[%s]: %w", Key, err)
	}
	return nil
}
