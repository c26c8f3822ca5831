package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/localstore"
)

const createLocalStateTable = `
	CREATE TABLE IF NOT EXISTS local_state (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

type localStateRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLocalStateRepository creates a localstore backend on the local_state table
func NewLocalStateRepository(db *sql.DB, logger *zap.Logger) *localStateRepository {
	return &localStateRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the local_state table if needed
func (r *localStateRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createLocalStateTable); err != nil {
		r.logger.Error("Failed to create local_state table", zap.Error(err))
		return err
	}
	return nil
}

func (r *localStateRepository) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM local_state WHERE key = $1`

	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, localstore.ErrNotExist
	}
	if err != nil {
		r.logger.Error("Failed to get local state", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	return []byte(value), nil
}

func (r *localStateRepository) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO local_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query, key, string(value)); err != nil {
		r.logger.Error("Failed to set local state", zap.String("key", key), zap.Error(err))
		return err
	}

	return nil
}

func (r *localStateRepository) Delete(ctx context.Context, keys ...string) error {
	query := `DELETE FROM local_state WHERE key = ANY($1)`

	if _, err := r.db.ExecContext(ctx, query, pq.Array(keys)); err != nil {
		r.logger.Error("Failed to delete local state", zap.Strings("keys", keys), zap.Error(err))
		return err
	}

	return nil
}
