// Package auth issues and verifies the bearer tokens the ledger API uses to
// bind a request to a caller identity.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkrasnov/consentvault/internal/common"
)

// Claims carries the standard registered claims plus the caller's canonical
// identity string.
type Claims struct {
	jwt.RegisteredClaims
	Address string
}

// GenerateToken signs an HS256 token binding the given identity for the
// validity duration.
func GenerateToken(address string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		Address: address,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetAddressFromToken verifies the token signature and expiry and returns the
// identity it was issued for.
func GetAddressFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.Address, nil
}
