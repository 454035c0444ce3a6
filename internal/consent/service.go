// Package consent implements the consent/authorization engine: a façade over
// the ledger for record and consent lifecycle, and the pure access evaluator
// that gates key recovery.
package consent

import (
	"context"
	"fmt"
	"time"

	"github.com/dkrasnov/consentvault/internal/common"
	"github.com/dkrasnov/consentvault/internal/identity"
	"github.com/dkrasnov/consentvault/internal/ledger"
)

// Service is the CRUD/query façade over the ledger. Reads are side-effect
// free and eventually consistent; each write is a single ledger transaction.
// Input validation happens here, before any I/O; the ledger re-checks
// ownership and expiry server-side.
type Service struct {
	ledger ledger.Ledger

	// now is a seam for tests.
	now func() time.Time
}

// NewService constructs a Service over the given ledger.
func NewService(l ledger.Ledger) *Service {
	return &Service{ledger: l, now: time.Now}
}

// CreateRecord appends a new record owned by caller and returns its id.
func (s *Service) CreateRecord(ctx context.Context, caller, title, description, contentHash string) (int64, error) {
	owner, err := identity.Normalize(caller)
	if err != nil {
		return 0, err
	}
	if contentHash == "" {
		return 0, fmt.Errorf("%w: missing content hash", common.ErrEmptyPayload)
	}
	return s.ledger.CreateRecord(ctx, owner, title, description, contentHash)
}

// GetRecord fetches a record by id.
func (s *Service) GetRecord(ctx context.Context, id int64) (ledger.Record, error) {
	return s.ledger.GetRecord(ctx, id)
}

// ListRecordsByOwner returns all records owned by owner.
func (s *Service) ListRecordsByOwner(ctx context.Context, owner string) ([]ledger.Record, error) {
	canonical, err := identity.Normalize(owner)
	if err != nil {
		return nil, err
	}
	return s.ledger.ListRecordsByOwner(ctx, canonical)
}

// Grant creates a consent from caller to requester over recordID, expiring
// at expiresAt (unix seconds). The expiry must be strictly in the future.
// Duplicate grants for the same tuple are allowed and independent.
func (s *Service) Grant(ctx context.Context, caller, requester string, recordID int64, purpose string, expiresAt int64) (int64, error) {
	owner, err := identity.Normalize(caller)
	if err != nil {
		return 0, err
	}
	grantee, err := identity.Normalize(requester)
	if err != nil {
		return 0, err
	}
	if expiresAt <= s.now().Unix() {
		return 0, common.ErrInvalidExpiry
	}
	return s.ledger.Grant(ctx, owner, grantee, recordID, purpose, expiresAt)
}

// Revoke deactivates a consent. Only the granting owner may revoke;
// revoking an already-inactive consent succeeds without effect.
func (s *Service) Revoke(ctx context.Context, caller string, consentID int64) error {
	owner, err := identity.Normalize(caller)
	if err != nil {
		return err
	}
	return s.ledger.Revoke(ctx, owner, consentID)
}

// GetConsent fetches a consent by id.
func (s *Service) GetConsent(ctx context.Context, id int64) (ledger.Consent, error) {
	return s.ledger.GetConsent(ctx, id)
}

// ListConsentsByOwner returns all consents granted by owner.
func (s *Service) ListConsentsByOwner(ctx context.Context, owner string) ([]ledger.Consent, error) {
	canonical, err := identity.Normalize(owner)
	if err != nil {
		return nil, err
	}
	return s.ledger.ListConsentsByOwner(ctx, canonical)
}

// ListConsentsFor returns consents where both owner and requester match.
func (s *Service) ListConsentsFor(ctx context.Context, owner, requester string) ([]ledger.Consent, error) {
	canonicalOwner, err := identity.Normalize(owner)
	if err != nil {
		return nil, err
	}
	canonicalRequester, err := identity.Normalize(requester)
	if err != nil {
		return nil, err
	}
	return s.ledger.ListConsentsFor(ctx, canonicalOwner, canonicalRequester)
}

// CheckAccess evaluates requester's access to recordID against the
// requester's consents from this owner, at the current time. Fresh ledger
// state is fetched on every call; Allow decisions are never cached.
func (s *Service) CheckAccess(ctx context.Context, owner, requester string, recordID int64) (Decision, error) {
	consents, err := s.ListConsentsFor(ctx, owner, requester)
	if err != nil {
		return Decision{}, err
	}
	return Evaluate(s.now().Unix(), requester, recordID, consents), nil
}
