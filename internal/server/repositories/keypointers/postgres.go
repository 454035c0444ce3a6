// Package keypointers provides PostgreSQL-backed persistence for
// wrapped-key pointers.
package keypointers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkrasnov/consentvault/internal/common"
	"github.com/dkrasnov/consentvault/internal/dbx"
)

// PostgresRepository implements pointer storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert writes the pointer for (recordID, requester), replacing any
// previous pointer for the pair. Last write wins.
func (r *PostgresRepository) Upsert(ctx context.Context, recordID int64, requester, pointer string, updatedAt int64) error {
	query := `
		INSERT INTO wrapped_key_pointers (record_id, requester, pointer, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (record_id, requester)
		DO UPDATE SET
			pointer = EXCLUDED.pointer,
			updated_at = EXCLUDED.updated_at;
	`
	if _, err := r.db.ExecContext(ctx, query, recordID, requester, pointer, updatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the pointer for (recordID, requester).
func (r *PostgresRepository) Get(ctx context.Context, recordID int64, requester string) (string, error) {
	query := `
		SELECT pointer FROM wrapped_key_pointers
		WHERE record_id = $1 AND requester = $2;
	`
	var pointer string
	err := r.db.QueryRowContext(ctx, query, recordID, requester).Scan(&pointer)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrPointerNotFound
	}
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return pointer, nil
}
