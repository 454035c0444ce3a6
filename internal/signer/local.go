package signer

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/dkrasnov/consentvault/internal/identity"
)

// LocalSigner signs with per-identity HMAC-SHA256 secrets held in memory.
// Signatures are deterministic for a given (identity, message) pair, which
// matches wallet behavior where repeated signing of the fixed derivation
// message yields the same signature. Intended for tests and local runs.
type LocalSigner struct {
	secrets map[string][]byte
}

// NewLocalSigner builds a LocalSigner over the given identity→secret map.
// Identity keys are normalized; entries with invalid identities are skipped.
func NewLocalSigner(secrets map[string][]byte) *LocalSigner {
	normalized := make(map[string][]byte, len(secrets))
	for id, secret := range secrets {
		canonical, err := identity.Normalize(id)
		if err != nil {
			continue
		}
		normalized[canonical] = secret
	}
	return &LocalSigner{secrets: normalized}
}

// Sign returns the hex-encoded HMAC-SHA256 of message under the identity's
// secret. Unknown identities are reported as ErrRejected, the same way a
// wallet refuses to sign for an address it does not hold.
func (s *LocalSigner) Sign(_ context.Context, id string, message string) (string, error) {
	canonical, err := identity.Normalize(id)
	if err != nil {
		return "", ErrRejected
	}
	secret, ok := s.secrets[canonical]
	if !ok {
		return "", ErrRejected
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil)), nil
}
