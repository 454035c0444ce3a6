package consents

import (
	"context"

	"github.com/dkrasnov/consentvault/internal/ledger"
)

// Repository is consent persistence for the reference ledger. The only
// mutation is Deactivate; consents are never deleted.
type Repository interface {
	Create(ctx context.Context, c ledger.Consent) (int64, error)
	Get(ctx context.Context, id int64) (ledger.Consent, error)
	ListByOwner(ctx context.Context, owner string) ([]ledger.Consent, error)
	ListByOwnerAndRequester(ctx context.Context, owner, requester string) ([]ledger.Consent, error)
	Deactivate(ctx context.Context, id int64) error
}
