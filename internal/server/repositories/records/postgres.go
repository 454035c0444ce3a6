// Package records provides PostgreSQL-backed persistence for ledger records.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkrasnov/consentvault/internal/common"
	"github.com/dkrasnov/consentvault/internal/dbx"
	"github.com/dkrasnov/consentvault/internal/ledger"
)

// PostgresRepository implements record storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a record and returns its ledger-assigned id.
func (r *PostgresRepository) Create(ctx context.Context, owner, title, description, contentHash string, createdAt int64) (int64, error) {
	query := `
		INSERT INTO records (owner, title, description, content_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query, owner, title, description, contentHash, createdAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

// Get fetches a record by id.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (ledger.Record, error) {
	query := `
		SELECT id, owner, title, description, content_hash, created_at FROM records
		WHERE id = $1;
	`
	var rec ledger.Record
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.Owner, &rec.Title, &rec.Description, &rec.ContentHash, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Record{}, common.ErrRecordNotFound
	}
	if err != nil {
		return ledger.Record{}, fmt.Errorf("db error: %w", err)
	}
	return rec, nil
}

// ListByOwner returns all records for owner via the owner index.
func (r *PostgresRepository) ListByOwner(ctx context.Context, owner string) ([]ledger.Record, error) {
	query := `
		SELECT id, owner, title, description, content_hash, created_at FROM records
		WHERE owner = $1
		ORDER BY id;
	`
	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []ledger.Record
	for rows.Next() {
		var rec ledger.Record
		if err := rows.Scan(
			&rec.ID, &rec.Owner, &rec.Title, &rec.Description, &rec.ContentHash, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
