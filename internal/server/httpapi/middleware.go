package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dkrasnov/consentvault/internal/identity"
	"github.com/dkrasnov/consentvault/internal/server/auth"
)

type ctxKey int

const callerKey ctxKey = iota

// withAuth verifies the Authorization bearer token and stores the canonical
// caller identity in the request context.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		address, err := auth.GetAddressFromToken(strings.TrimPrefix(header, "Bearer "), s.secretKey)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		canonical, err := identity.Normalize(address)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token identity")
			return
		}

		ctx := context.WithValue(r.Context(), callerKey, canonical)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// callerFrom returns the identity the auth middleware verified.
func callerFrom(ctx context.Context) string {
	caller, _ := ctx.Value(callerKey).(string)
	return caller
}
