// Package ledgersvc implements the reference ledger: the server-side
// authority for records, consents, and wrapped-key pointers, backed by
// PostgreSQL. It satisfies the ledger.Ledger contract, so the core protocols
// run against it the same way they run against the in-memory ledger.
package ledgersvc

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dkrasnov/consentvault/internal/common"
	"github.com/dkrasnov/consentvault/internal/consent"
	"github.com/dkrasnov/consentvault/internal/dbx"
	"github.com/dkrasnov/consentvault/internal/identity"
	"github.com/dkrasnov/consentvault/internal/ledger"
	"github.com/dkrasnov/consentvault/internal/logging"
	"github.com/dkrasnov/consentvault/internal/server/repositories/repomanager"
)

// Service is the PostgreSQL-backed ledger. Every write runs in a single
// transaction: it either commits fully or leaves no observable change.
type Service struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger

	// now is a seam for tests.
	now func() time.Time
}

// NewService constructs the ledger service over the given connection and
// repository manager.
func NewService(db *sql.DB, repos repomanager.RepositoryManager, logger logging.Logger) *Service {
	return &Service{
		db:     db,
		repos:  repos,
		logger: logger.With("module", "ledgersvc"),
		now:    time.Now,
	}
}

// SetClock overrides the service's time source. Test hook.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) CreateRecord(ctx context.Context, caller, title, description, contentHash string) (int64, error) {
	owner, err := identity.Normalize(caller)
	if err != nil {
		return 0, err
	}

	id, err := s.repos.Records(s.db).Create(ctx, owner, title, description, contentHash, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("create record: %w", err)
	}

	s.logger.Info(ctx, "record created", "record_id", id, "owner", owner)
	return id, nil
}

func (s *Service) GetRecord(ctx context.Context, id int64) (ledger.Record, error) {
	return s.repos.Records(s.db).Get(ctx, id)
}

func (s *Service) ListRecordsByOwner(ctx context.Context, owner string) ([]ledger.Record, error) {
	canonical, err := identity.Normalize(owner)
	if err != nil {
		return nil, err
	}
	return s.repos.Records(s.db).ListByOwner(ctx, canonical)
}

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

	var consentID int64
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rec, err := s.repos.Records(tx).Get(ctx, recordID)
		if err != nil {
			return err
		}
		if !identity.Equal(rec.Owner, owner) {
			return common.ErrNotOwner
		}

		consentID, err = s.repos.Consents(tx).Create(ctx, ledger.Consent{
			Owner:     owner,
			Requester: grantee,
			RecordID:  recordID,
			Purpose:   purpose,
			ExpiresAt: expiresAt,
			Active:    true,
		})
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info(ctx, "consent granted",
		"consent_id", consentID, "record_id", recordID, "owner", owner, "requester", grantee)
	return consentID, nil
}

func (s *Service) Revoke(ctx context.Context, caller string, consentID int64) error {
	owner, err := identity.Normalize(caller)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		c, err := s.repos.Consents(tx).Get(ctx, consentID)
		if err != nil {
			return err
		}
		if !identity.Equal(c.Owner, owner) {
			return common.ErrNotOwner
		}
		return s.repos.Consents(tx).Deactivate(ctx, consentID)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "consent revoked", "consent_id", consentID, "owner", owner)
	return nil
}

func (s *Service) GetConsent(ctx context.Context, id int64) (ledger.Consent, error) {
	return s.repos.Consents(s.db).Get(ctx, id)
}

func (s *Service) ListConsentsByOwner(ctx context.Context, owner string) ([]ledger.Consent, error) {
	canonical, err := identity.Normalize(owner)
	if err != nil {
		return nil, err
	}
	return s.repos.Consents(s.db).ListByOwner(ctx, canonical)
}

func (s *Service) ListConsentsFor(ctx context.Context, owner, requester string) ([]ledger.Consent, error) {
	canonicalOwner, err := identity.Normalize(owner)
	if err != nil {
		return nil, err
	}
	canonicalRequester, err := identity.Normalize(requester)
	if err != nil {
		return nil, err
	}
	return s.repos.Consents(s.db).ListByOwnerAndRequester(ctx, canonicalOwner, canonicalRequester)
}

func (s *Service) StoreWrappedKeyPointer(ctx context.Context, caller string, recordID int64, requester, pointer string) error {
	owner, err := identity.Normalize(caller)
	if err != nil {
		return err
	}
	grantee, err := identity.Normalize(requester)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rec, err := s.repos.Records(tx).Get(ctx, recordID)
		if err != nil {
			return err
		}
		if !identity.Equal(rec.Owner, owner) {
			return common.ErrNotOwner
		}
		return s.repos.KeyPointers(tx).Upsert(ctx, recordID, grantee, pointer, s.now().Unix())
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "wrapped key pointer stored", "record_id", recordID, "requester", grantee)
	return nil
}

// GetWrappedKeyPointer re-verifies, at read time, that the caller is the
// requester and that a currently-valid consent covers the pair. A cached
// Allow decision from an earlier call is never trusted.
func (s *Service) GetWrappedKeyPointer(ctx context.Context, caller string, recordID int64, requester string) (string, error) {
	callerID, err := identity.Normalize(caller)
	if err != nil {
		return "", err
	}
	grantee, err := identity.Normalize(requester)
	if err != nil {
		return "", err
	}
	if !identity.Equal(callerID, grantee) {
		return "", fmt.Errorf("%w: %w", common.ErrAccessDenied, common.ErrNotRequester)
	}

	rec, err := s.repos.Records(s.db).Get(ctx, recordID)
	if err != nil {
		return "", err
	}

	candidates, err := s.repos.Consents(s.db).ListByOwnerAndRequester(ctx, rec.Owner, grantee)
	if err != nil {
		return "", err
	}

	decision := consent.Evaluate(s.now().Unix(), grantee, recordID, candidates)
	if !decision.Allowed {
		s.logger.Warn(ctx, "wrapped key pointer read denied",
			"record_id", recordID, "requester", grantee, "reason", decision.Reason.String())
		return "", fmt.Errorf("%w: %s", common.ErrAccessDenied, decision.Reason)
	}

	return s.repos.KeyPointers(s.db).Get(ctx, recordID, grantee)
}
