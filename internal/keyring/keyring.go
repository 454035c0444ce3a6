// Package keyring derives a data owner's content-encryption key from a
// one-time wallet signature. The derivation is deterministic for a given
// identity: the signed message embeds a constant nonce rather than a fresh
// per-session challenge, binding the derived key to "this app + this address"
// so the owner recovers the same key on every device.
package keyring

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/dkrasnov/consentvault/internal/common"
	"github.com/dkrasnov/consentvault/internal/cryptox"
	"github.com/dkrasnov/consentvault/internal/identity"
	"github.com/dkrasnov/consentvault/internal/signer"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// derivationMessage is the fixed, versioned template presented to the
	// signer. Changing any part of it changes every derived key, so treat
	// it as a wire constant.
	derivationMessage = "consentvault content key v1\naddress: %s\nnonce: " + derivationNonce

	// derivationNonce is intentionally constant. A fresh per-session nonce
	// would produce a different signature, and thus a different key, on
	// every derivation.
	derivationNonce = "6b1f0e6e-keyring-static"

	kdfIterations = 100_000
)

// kdfSalt is the application-wide PBKDF2 salt. Fixed so that the same
// signature always yields the same key.
var kdfSalt = []byte("consentvault.pbkdf2.salt.v1")

// Cache holds derived content keys for reuse within a caller session.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(identity string) (*cryptox.ContentKey, bool)
	Put(identity string, key *cryptox.ContentKey)
}

// DeriveOrGet returns the content key for the given identity.
//
// If the cache already holds a key it is returned unchanged, with no I/O.
// Otherwise the signer is asked to sign the fixed derivation message (the
// one suspend point), and the signature bytes are fed through PBKDF2-SHA256
// with the application salt and iteration count to produce an exportable
// 256-bit key.
//
// The caller is responsible for putting the returned key into the cache;
// this function never writes to it.
func DeriveOrGet(ctx context.Context, id string, s signer.Signer, cache Cache) (*cryptox.ContentKey, error) {
	canonical, err := identity.Normalize(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDerivationFailed, err)
	}

	if cache != nil {
		if key, ok := cache.Get(canonical); ok {
			return key, nil
		}
	}

	message := fmt.Sprintf(derivationMessage, canonical)
	sig, err := s.Sign(ctx, canonical, message)
	if err != nil {
		if errors.Is(err, signer.ErrRejected) {
			return nil, fmt.Errorf("%w: %w", common.ErrSignatureRejected, err)
		}
		return nil, fmt.Errorf("signature request failed: %w", err)
	}
	if sig == "" {
		return nil, fmt.Errorf("%w: empty signature", common.ErrDerivationFailed)
	}

	raw := pbkdf2.Key([]byte(sig), kdfSalt, kdfIterations, cryptox.KeyLen, sha256.New)
	defer common.WipeByteArray(raw)

	key, err := cryptox.NewContentKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDerivationFailed, err)
	}
	return key, nil
}
