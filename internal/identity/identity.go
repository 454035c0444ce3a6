// Package identity handles the address-like identifiers that name owners and
// requesters. Identities are compared case-insensitively: two hex addresses
// that differ only in letter case refer to the same party.
package identity

import (
	"encoding/hex"
	"strings"

	"github.com/dkrasnov/consentvault/internal/common"
)

// Normalize validates an identity and returns its canonical (lower-case)
// form. An identity must be a non-empty token without whitespace; if it
// carries a 0x prefix the remainder must be valid hex.
func Normalize(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", common.ErrInvalidIdentity
	}
	if strings.ContainsAny(id, " \t\r\n") {
		return "", common.ErrInvalidIdentity
	}
	lower := strings.ToLower(id)
	if strings.HasPrefix(lower, "0x") {
		body := lower[2:]
		if body == "" {
			return "", common.ErrInvalidIdentity
		}
		if _, err := hex.DecodeString(body); err != nil {
			return "", common.ErrInvalidIdentity
		}
	}
	return lower, nil
}

// Equal reports whether two identities refer to the same party.
func Equal(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
