// Package ledger defines the append-only system of record for records,
// consents, and wrapped-key pointers, as the interface this module consumes.
// Implementations: the in-memory ledger (tests, local runs), the Postgres
// reference service, and the HTTP client that talks to it.
package ledger

import "context"

// Record is an owner's encrypted data item. Immutable once created; the
// ledger assigns a monotonically increasing positive id and the creation
// timestamp. ContentHash points at the encrypted payload in the blob store.
type Record struct {
	ID          int64  `json:"id"`
	Owner       string `json:"owner"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ContentHash string `json:"content_hash"`
	CreatedAt   int64  `json:"created_at"`
}

// Consent grants a single requester time-bounded access to a single record.
// Validity at time T is always computed, never cached:
// Active && T <= ExpiresAt. Only the owner may revoke, and revocation is
// one-way. Multiple consents may coexist for the same
// (owner, requester, record) tuple, each with an independent lifecycle.
type Consent struct {
	ID        int64  `json:"id"`
	Owner     string `json:"owner"`
	Requester string `json:"requester"`
	RecordID  int64  `json:"record_id"`
	Purpose   string `json:"purpose"`
	ExpiresAt int64  `json:"expires_at"`
	Active    bool   `json:"active"`
}

// Ledger is the consumed ledger-service contract. Every write is a single
// transaction that either commits fully or not at all, and returns the
// assigned id directly; this module never derives ids from event logs.
//
// caller is the authenticated identity issuing the call. Implementations
// enforce the ownership rules server-side; the façade validates them
// client-side as well to fail before I/O where possible.
type Ledger interface {
	// CreateRecord appends a new record owned by caller and returns its id.
	CreateRecord(ctx context.Context, caller, title, description, contentHash string) (int64, error)

	// GetRecord fetches a record by id. ErrRecordNotFound if missing.
	GetRecord(ctx context.Context, id int64) (Record, error)

	// ListRecordsByOwner returns all records owned by owner, using an
	// owner-indexed lookup.
	ListRecordsByOwner(ctx context.Context, owner string) ([]Record, error)

	// Grant appends a consent from caller to requester over recordID.
	// Fails with ErrRecordNotFound if the record does not exist,
	// ErrNotOwner if caller does not own it, and ErrInvalidExpiry if
	// expiresAt is not strictly in the future.
	Grant(ctx context.Context, caller, requester string, recordID int64, purpose string, expiresAt int64) (int64, error)

	// Revoke flips a consent to inactive. ErrConsentNotFound if missing,
	// ErrNotOwner if caller did not grant it. Revoking an already-inactive
	// consent is not an error.
	Revoke(ctx context.Context, caller string, consentID int64) error

	// GetConsent fetches a consent by id. ErrConsentNotFound if missing.
	GetConsent(ctx context.Context, id int64) (Consent, error)

	// ListConsentsByOwner returns all consents granted by owner.
	ListConsentsByOwner(ctx context.Context, owner string) ([]Consent, error)

	// ListConsentsFor returns consents where both owner and requester match.
	ListConsentsFor(ctx context.Context, owner, requester string) ([]Consent, error)

	// StoreWrappedKeyPointer records the blob pointer for
	// (recordID, requester), overwriting any previous pointer for the pair
	// (last-write-wins). Caller must own the record.
	StoreWrappedKeyPointer(ctx context.Context, caller string, recordID int64, requester, pointer string) error

	// GetWrappedKeyPointer returns the pointer for (recordID, requester).
	// The implementation must verify that caller equals requester and that
	// a currently-valid consent exists for the pair at read time, failing
	// with ErrAccessDenied otherwise; ErrPointerNotFound if no share exists.
	GetWrappedKeyPointer(ctx context.Context, caller string, recordID int64, requester string) (string, error)
}
