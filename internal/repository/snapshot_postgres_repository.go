package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const defaultSnapshotID = "default"

// PostgresSnapshotRepository keeps the overlay snapshot in a single JSONB row.
type PostgresSnapshotRepository struct {
	db *sqlx.DB
}

// NewPostgresSnapshotRepository constructs the repository.
func NewPostgresSnapshotRepository(db *sqlx.DB) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

// EnsureSchema creates the snapshot table when missing.
func (r *PostgresSnapshotRepository) EnsureSchema(ctx context.Context) error {
	const query = `CREATE TABLE IF NOT EXISTS overlay_snapshots (
    id TEXT PRIMARY KEY,
    payload JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure overlay_snapshots: %w", err)
	}
	return nil
}

// Load fetches the stored payload.
func (r *PostgresSnapshotRepository) Load(ctx context.Context) ([]byte, error) {
	const query = `SELECT payload FROM overlay_snapshots WHERE id = $1`
	var payload []byte
	if err := r.db.GetContext(ctx, &payload, query, defaultSnapshotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("load overlay snapshot: %w", err)
	}
	return payload, nil
}

// Save upserts the whole payload.
func (r *PostgresSnapshotRepository) Save(ctx context.Context, payload []byte) error {
	const query = `INSERT INTO overlay_snapshots (id, payload, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (id)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, defaultSnapshotID, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("save overlay snapshot: %w", err)
	}
	return nil
}
