package localstate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dkotlyar/snipstash/internal/dbx"
)

const (
	keyLastChangeHash = "last_change_hash"
	keyLastSyncedAt   = "last_synced_at"
)

// Repository is a key/value store over the session_state table, with
// typed accessors for the facts the sync layer records.
type Repository struct {
	db dbx.DBTX
}

func NewRepository(db dbx.DBTX) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM session_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session_state[%s]: %w", key, err)
	}
	return value, nil
}

func (r *Repository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set session_state[%s]: %w", key, err)
	}
	return nil
}

// LastChangeHash returns the change hash recorded by the previous
// session, or "" when none was recorded yet.
func (r *Repository) LastChangeHash(ctx context.Context) (string, error) {
	v, err := r.Get(ctx, keyLastChangeHash)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (r *Repository) SetLastChangeHash(ctx context.Context, hash string) error {
	return r.Set(ctx, keyLastChangeHash, []byte(hash))
}

// LastSyncedAt returns the wall-clock time of the last applied refresh;
// the zero time when never synced.
func (r *Repository) LastSyncedAt(ctx context.Context) (time.Time, error) {
	v, err := r.Get(ctx, keyLastSyncedAt)
	if err != nil || len(v) == 0 {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, string(v))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last_synced_at: %w", err)
	}
	return ts, nil
}

func (r *Repository) SetLastSyncedAt(ctx context.Context, ts time.Time) error {
	return r.Set(ctx, keyLastSyncedAt, []byte(ts.UTC().Format(time.RFC3339Nano)))
}
