package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/dkrasnov/consentvault/internal/common"
)

// NonceLen is the GCM nonce length in bytes. The nonce occupies a fixed
// prefix of the wire form produced by Seal.
const NonceLen = 12

func newGCM(key *ContentKey) (cipher.AEAD, error) {
	if key == nil || len(key.raw) != KeyLen {
		return nil, common.ErrMalformedKeyData
	}
	block, err := aes.NewCipher(key.raw)
	if err != nil {
		return nil, fmt.Errorf("cipher init error: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm init error: %w", err)
	}
	return aesgcm, nil
}

// Encrypt encrypts plaintext under key with a fresh random nonce.
// The ciphertext (including the GCM tag) and the nonce are returned
// separately. Fails on empty input, a missing key, or a decrypt-only key.
func Encrypt(plaintext []byte, key *ContentKey) (ciphertext, nonce []byte, err error) {
	if len(plaintext) == 0 {
		return nil, nil, common.ErrEmptyPayload
	}
	if key != nil && key.usage == UsageDecryptOnly {
		return nil, nil, common.ErrAccessDenied
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = common.GenerateRandByteArray(NonceLen)
	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// Seal encrypts plaintext and returns the wire form nonce || ciphertext,
// suitable for storage and for Decrypt.
func Seal(plaintext []byte, key *ContentKey) ([]byte, error) {
	ciphertext, nonce, err := Encrypt(plaintext, key)
	if err != nil {
		return nil, err
	}
	wire := make([]byte, 0, len(nonce)+len(ciphertext))
	wire = append(wire, nonce...)
	wire = append(wire, ciphertext...)
	return wire, nil
}

// Decrypt opens the wire form nonce || ciphertext. It returns ErrMalformed
// when the wire is shorter than the nonce or carries no ciphertext, and
// ErrAuthenticationFailed when the authentication tag does not verify
// (wrong key or corrupted data).
func Decrypt(wire []byte, key *ContentKey) ([]byte, error) {
	if len(wire) <= NonceLen {
		return nil, common.ErrMalformed
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := wire[:NonceLen]
	ciphertext := wire[NonceLen:]

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrAuthenticationFailed
	}
	return plaintext, nil
}
