// Package httpapi exposes the reference ledger over HTTP/JSON. Every route
// requires a bearer token; the identity inside the token is the caller for
// all ledger operations, so a client can never act on behalf of another
// identity by naming it in the request body.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dkrasnov/consentvault/internal/ledger"
	"github.com/dkrasnov/consentvault/internal/logging"
)

// Server serves the ledger API over a ledger.Ledger implementation.
type Server struct {
	ledger    ledger.Ledger
	secretKey []byte
	logger    logging.Logger
}

func NewServer(l ledger.Ledger, secretKey []byte, logger logging.Logger) *Server {
	return &Server{
		ledger:    l,
		secretKey: secretKey,
		logger:    logger.With("module", "httpapi"),
	}
}

// Router builds the route tree. All routes sit behind the bearer-token
// middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Use(s.withAuth)

		r.Post("/records", s.createRecord)
		r.Get("/records", s.listRecords)
		r.Get("/records/{id}", s.getRecord)

		r.Put("/records/{id}/keys/{requester}", s.storeKeyPointer)
		r.Get("/records/{id}/keys/{requester}", s.getKeyPointer)

		r.Post("/consents", s.grant)
		r.Get("/consents", s.listConsents)
		r.Get("/consents/{id}", s.getConsent)
		r.Post("/consents/{id}/revoke", s.revoke)
	})

	return r
}
