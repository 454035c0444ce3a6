// Package memory provides an in-memory Ledger for tests and local runs.
// It mirrors the reference service's semantics: monotonic ids, append-only
// records, one-way revocation, last-write-wins key pointers, and a
// consent-gated pointer read.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dkrasnov/consentvault/internal/common"
	"github.com/dkrasnov/consentvault/internal/consent"
	"github.com/dkrasnov/consentvault/internal/identity"
	"github.com/dkrasnov/consentvault/internal/ledger"
)

type pointerKey struct {
	recordID  int64
	requester string
}

// Ledger is a mutex-guarded map-backed ledger. Lookups by owner/requester go
// through keyed indexes, not linear scans over the whole ledger.
type Ledger struct {
	mu sync.Mutex

	recordSeq  int64
	consentSeq int64

	records  map[int64]ledger.Record
	consents map[int64]ledger.Consent

	recordsByOwner  map[string][]int64
	consentsByOwner map[string][]int64
	consentsByPair  map[[2]string][]int64

	pointers map[pointerKey]string

	// now is a seam for tests.
	now func() time.Time
}

// New constructs an empty in-memory ledger.
func New() *Ledger {
	return &Ledger{
		records:         make(map[int64]ledger.Record),
		consents:        make(map[int64]ledger.Consent),
		recordsByOwner:  make(map[string][]int64),
		consentsByOwner: make(map[string][]int64),
		consentsByPair:  make(map[[2]string][]int64),
		pointers:        make(map[pointerKey]string),
		now:             time.Now,
	}
}

// SetClock overrides the ledger's time source. Test hook.
func (l *Ledger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

func (l *Ledger) CreateRecord(ctx context.Context, caller, title, description, contentHash string) (int64, error) {
	owner, err := identity.Normalize(caller)
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.recordSeq++
	rec := ledger.Record{
		ID:          l.recordSeq,
		Owner:       owner,
		Title:       title,
		Description: description,
		ContentHash: contentHash,
		CreatedAt:   l.now().Unix(),
	}
	l.records[rec.ID] = rec
	l.recordsByOwner[owner] = append(l.recordsByOwner[owner], rec.ID)
	return rec.ID, nil
}

func (l *Ledger) GetRecord(ctx context.Context, id int64) (ledger.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[id]
	if !ok {
		return ledger.Record{}, common.ErrRecordNotFound
	}
	return rec, nil
}

func (l *Ledger) ListRecordsByOwner(ctx context.Context, owner string) ([]ledger.Record, error) {
	canonical, err := identity.Normalize(owner)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ids := l.recordsByOwner[canonical]
	result := make([]ledger.Record, 0, len(ids))
	for _, id := range ids {
		result = append(result, l.records[id])
	}
	return result, nil
}

func (l *Ledger) Grant(ctx context.Context, caller, requester string, recordID int64, purpose string, expiresAt int64) (int64, error) {
	owner, err := identity.Normalize(caller)
	if err != nil {
		return 0, err
	}
	grantee, err := identity.Normalize(requester)
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[recordID]
	if !ok {
		return 0, common.ErrRecordNotFound
	}
	if !identity.Equal(rec.Owner, owner) {
		return 0, common.ErrNotOwner
	}
	if expiresAt <= l.now().Unix() {
		return 0, common.ErrInvalidExpiry
	}

	l.consentSeq++
	c := ledger.Consent{
		ID:        l.consentSeq,
		Owner:     owner,
		Requester: grantee,
		RecordID:  recordID,
		Purpose:   purpose,
		ExpiresAt: expiresAt,
		Active:    true,
	}
	l.consents[c.ID] = c
	l.consentsByOwner[owner] = append(l.consentsByOwner[owner], c.ID)
	pair := [2]string{owner, grantee}
	l.consentsByPair[pair] = append(l.consentsByPair[pair], c.ID)
	return c.ID, nil
}

func (l *Ledger) Revoke(ctx context.Context, caller string, consentID int64) error {
	owner, err := identity.Normalize(caller)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.consents[consentID]
	if !ok {
		return common.ErrConsentNotFound
	}
	if !identity.Equal(c.Owner, owner) {
		return common.ErrNotOwner
	}
	// Revoking an already-inactive consent is a no-op, not an error.
	c.Active = false
	l.consents[consentID] = c
	return nil
}

func (l *Ledger) GetConsent(ctx context.Context, id int64) (ledger.Consent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.consents[id]
	if !ok {
		return ledger.Consent{}, common.ErrConsentNotFound
	}
	return c, nil
}

func (l *Ledger) ListConsentsByOwner(ctx context.Context, owner string) ([]ledger.Consent, error) {
	canonical, err := identity.Normalize(owner)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.collectConsents(l.consentsByOwner[canonical]), nil
}

func (l *Ledger) ListConsentsFor(ctx context.Context, owner, requester string) ([]ledger.Consent, error) {
	canonicalOwner, err := identity.Normalize(owner)
	if err != nil {
		return nil, err
	}
	canonicalRequester, err := identity.Normalize(requester)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.collectConsents(l.consentsByPair[[2]string{canonicalOwner, canonicalRequester}]), nil
}

func (l *Ledger) collectConsents(ids []int64) []ledger.Consent {
	result := make([]ledger.Consent, 0, len(ids))
	for _, id := range ids {
		result = append(result, l.consents[id])
	}
	return result
}

func (l *Ledger) StoreWrappedKeyPointer(ctx context.Context, caller string, recordID int64, requester, pointer string) error {
	owner, err := identity.Normalize(caller)
	if err != nil {
		return err
	}
	grantee, err := identity.Normalize(requester)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[recordID]
	if !ok {
		return common.ErrRecordNotFound
	}
	if !identity.Equal(rec.Owner, owner) {
		return common.ErrNotOwner
	}
	// One slot per (record, requester); a new share supersedes the old one.
	l.pointers[pointerKey{recordID: recordID, requester: grantee}] = pointer
	return nil
}

func (l *Ledger) GetWrappedKeyPointer(ctx context.Context, caller string, recordID int64, requester string) (string, error) {
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

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[recordID]
	if !ok {
		return "", common.ErrRecordNotFound
	}

	// Re-evaluate consent validity at read time; a previously issued Allow
	// decision is never trusted here.
	candidates := l.collectConsents(l.consentsByPair[[2]string{rec.Owner, grantee}])
	decision := consent.Evaluate(l.now().Unix(), grantee, recordID, candidates)
	if !decision.Allowed {
		return "", fmt.Errorf("%w: %s", common.ErrAccessDenied, decision.Reason)
	}

	pointer, ok := l.pointers[pointerKey{recordID: recordID, requester: grantee}]
	if !ok {
		return "", common.ErrPointerNotFound
	}
	return pointer, nil
}
