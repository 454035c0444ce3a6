// Package signer defines the wallet-signing capability consumed by key
// derivation. A Signer proves control of an identity by signing an
// application-chosen message; it is constructed once and passed explicitly
// through calls, never held as process-global state.
package signer

import (
	"context"
	"errors"
)

var (
	// ErrRejected means the user (or policy) declined to sign. This is a
	// terminal cryptographic failure: retrying with the same inputs asks
	// the user again, which is the caller's decision, not ours.
	ErrRejected = errors.New("signature request rejected")

	// ErrUnavailable means the signer backend could not be reached. The
	// caller may retry the whole operation.
	ErrUnavailable = errors.New("signer unavailable")
)

// Signer produces a signature over message on behalf of identity.
//
// Implementations must return ErrRejected on user refusal and ErrUnavailable
// on transport failure, so callers can tell the two apart.
type Signer interface {
	Sign(ctx context.Context, identity string, message string) (string, error)
}
