// Package common defines shared constants and sentinel errors used across
// ConsentVault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Not-found errors. A missing record/consent/pointer is reported as such,
	// never downgraded to an authorization failure (and vice versa).
	ErrRecordNotFound  = errors.New("record not found")
	ErrConsentNotFound = errors.New("consent not found")
	ErrPointerNotFound = errors.New("wrapped key pointer not found")
	ErrBlobNotFound    = errors.New("blob not found")

	// Authorization errors.
	ErrNotOwner     = errors.New("caller is not the owner")
	ErrNotRequester = errors.New("caller is not the requester")
	ErrAccessDenied = errors.New("access denied")

	// Input validation errors, rejected before any I/O.
	ErrInvalidIdentity = errors.New("invalid identity")
	ErrInvalidExpiry   = errors.New("expiry must be in the future")
	ErrEmptyPayload    = errors.New("empty payload")

	// Cryptographic errors. Never retried automatically: the same inputs
	// reproduce the same failure.
	ErrAuthenticationFailed = errors.New("ciphertext authentication failed")
	ErrMalformed            = errors.New("malformed ciphertext")
	ErrMalformedKeyData     = errors.New("malformed key data")
	ErrDerivationFailed     = errors.New("key derivation failed")
	ErrSignatureRejected    = errors.New("signature request rejected")

	// Transport errors (ledger or blob store unreachable). The caller may
	// retry the whole operation; no internal retry is performed.
	ErrUnavailable = errors.New("service unavailable")

	// Auth token errors for the ledger service.
	ErrInvalidToken = errors.New("invalid token")
)
