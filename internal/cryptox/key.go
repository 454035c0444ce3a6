// Package cryptox implements the symmetric content-encryption layer:
// AES-256-GCM over a ContentKey, with a self-describing wire format of
// nonce || ciphertext.
package cryptox

import (
	"github.com/dkrasnov/consentvault/internal/common"
)

// KeyLen is the content key length in bytes (AES-256).
const KeyLen = 32

// KeyUsage restricts what a ContentKey may be used for.
type KeyUsage int

const (
	// UsageEncryptDecrypt allows both sealing and opening.
	UsageEncryptDecrypt KeyUsage = iota
	// UsageDecryptOnly marks a key recovered from a share; it must not be
	// used to produce new ciphertexts.
	UsageDecryptOnly
)

// ContentKey is a symmetric key for a record's payload. Keys live only in
// process memory; persisting unwrapped key bytes is the caller's problem and
// outside this package.
type ContentKey struct {
	raw        []byte
	usage      KeyUsage
	exportable bool
}

// NewContentKey wraps raw key material as an exportable encrypt/decrypt key.
// The bytes are copied.
func NewContentKey(raw []byte) (*ContentKey, error) {
	if len(raw) != KeyLen {
		return nil, common.ErrMalformedKeyData
	}
	b := make([]byte, KeyLen)
	copy(b, raw)
	return &ContentKey{raw: b, usage: UsageEncryptDecrypt, exportable: true}, nil
}

// ImportDecryptOnlyKey wraps raw key material recovered from a share. The
// resulting key opens ciphertexts but refuses to seal new ones or export.
func ImportDecryptOnlyKey(raw []byte) (*ContentKey, error) {
	if len(raw) != KeyLen {
		return nil, common.ErrMalformedKeyData
	}
	b := make([]byte, KeyLen)
	copy(b, raw)
	return &ContentKey{raw: b, usage: UsageDecryptOnly, exportable: false}, nil
}

// Export returns a copy of the raw key bytes. Only exportable keys can be
// exported; decrypt-only keys fail.
func (k *ContentKey) Export() ([]byte, error) {
	if k == nil || len(k.raw) == 0 {
		return nil, common.ErrMalformedKeyData
	}
	if !k.exportable {
		return nil, common.ErrAccessDenied
	}
	b := make([]byte, len(k.raw))
	copy(b, k.raw)
	return b, nil
}

// Usage returns the key's usage restriction.
func (k *ContentKey) Usage() KeyUsage {
	return k.usage
}

// Wipe zeroes the key material in place. The key is unusable afterwards.
func (k *ContentKey) Wipe() {
	if k == nil {
		return
	}
	common.WipeByteArray(k.raw)
	k.raw = nil
}
