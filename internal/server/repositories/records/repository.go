package records

import (
	"context"

	"github.com/dkrasnov/consentvault/internal/ledger"
)

// Repository is record persistence for the reference ledger. Records are
// append-only: there is no update or delete.
type Repository interface {
	Create(ctx context.Context, owner, title, description, contentHash string, createdAt int64) (int64, error)
	Get(ctx context.Context, id int64) (ledger.Record, error)
	ListByOwner(ctx context.Context, owner string) ([]ledger.Record, error)
}
