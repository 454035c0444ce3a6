// Package consents provides PostgreSQL-backed persistence for ledger
// consents, with owner- and pair-indexed queries.
package consents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkrasnov/consentvault/internal/common"
	"github.com/dkrasnov/consentvault/internal/dbx"
	"github.com/dkrasnov/consentvault/internal/ledger"
)

// PostgresRepository implements consent storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a consent and returns its ledger-assigned id. No
// uniqueness constraint applies: duplicate (owner, requester, record)
// tuples are independent grants.
func (r *PostgresRepository) Create(ctx context.Context, c ledger.Consent) (int64, error) {
	query := `
		INSERT INTO consents (owner, requester, record_id, purpose, expires_at, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		c.Owner, c.Requester, c.RecordID, c.Purpose, c.ExpiresAt, c.Active).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

// Get fetches a consent by id.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (ledger.Consent, error) {
	query := `
		SELECT id, owner, requester, record_id, purpose, expires_at, active FROM consents
		WHERE id = $1;
	`
	var c ledger.Consent
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Owner, &c.Requester, &c.RecordID, &c.Purpose, &c.ExpiresAt, &c.Active,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Consent{}, common.ErrConsentNotFound
	}
	if err != nil {
		return ledger.Consent{}, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// ListByOwner returns all consents granted by owner.
func (r *PostgresRepository) ListByOwner(ctx context.Context, owner string) ([]ledger.Consent, error) {
	query := `
		SELECT id, owner, requester, record_id, purpose, expires_at, active FROM consents
		WHERE owner = $1
		ORDER BY id;
	`
	return r.list(ctx, query, owner)
}

// ListByOwnerAndRequester returns consents where both fields match exactly.
func (r *PostgresRepository) ListByOwnerAndRequester(ctx context.Context, owner, requester string) ([]ledger.Consent, error) {
	query := `
		SELECT id, owner, requester, record_id, purpose, expires_at, active FROM consents
		WHERE owner = $1 AND requester = $2
		ORDER BY id;
	`
	return r.list(ctx, query, owner, requester)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]ledger.Consent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select consents: %w", err)
	}
	defer rows.Close()

	var result []ledger.Consent
	for rows.Next() {
		var c ledger.Consent
		if err := rows.Scan(
			&c.ID, &c.Owner, &c.Requester, &c.RecordID, &c.Purpose, &c.ExpiresAt, &c.Active,
		); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Deactivate flips a consent to inactive. Revoking an already-inactive
// consent affects its row without changing it, preserving idempotency.
func (r *PostgresRepository) Deactivate(ctx context.Context, id int64) error {
	query := `
		UPDATE consents SET active = FALSE WHERE id = $1;
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrConsentNotFound
	}
	return nil
}
