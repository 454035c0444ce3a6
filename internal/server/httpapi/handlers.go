package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dkrasnov/consentvault/internal/common"
)

type createRecordRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ContentHash string `json:"content_hash"`
}

type grantRequest struct {
	Requester string `json:"requester"`
	RecordID  int64  `json:"record_id"`
	Purpose   string `json:"purpose"`
	ExpiresAt int64  `json:"expires_at"`
}

type storePointerRequest struct {
	Pointer string `json:"pointer"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type pointerResponse struct {
	Pointer string `json:"pointer"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) createRecord(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	id, err := s.ledger.CreateRecord(r.Context(), callerFrom(r.Context()), req.Title, req.Description, req.ContentHash)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	rec, err := s.ledger.GetRecord(r.Context(), id)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		owner = callerFrom(r.Context())
	}

	recs, err := s.ledger.ListRecordsByOwner(r.Context(), owner)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) grant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	id, err := s.ledger.Grant(r.Context(), callerFrom(r.Context()), req.Requester, req.RecordID, req.Purpose, req.ExpiresAt)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) revoke(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid consent id")
		return
	}

	if err := s.ledger.Revoke(r.Context(), callerFrom(r.Context()), id); err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getConsent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid consent id")
		return
	}

	c, err := s.ledger.GetConsent(r.Context(), id)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (s *Server) listConsents(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		owner = callerFrom(r.Context())
	}
	requester := r.URL.Query().Get("requester")

	var err error
	var out any
	if requester == "" {
		out, err = s.ledger.ListConsentsByOwner(r.Context(), owner)
	} else {
		out, err = s.ledger.ListConsentsFor(r.Context(), owner, requester)
	}
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) storeKeyPointer(w http.ResponseWriter, r *http.Request) {
	recordID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	var req storePointerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	requester := chi.URLParam(r, "requester")
	if err := s.ledger.StoreWrappedKeyPointer(r.Context(), callerFrom(r.Context()), recordID, requester, req.Pointer); err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getKeyPointer(w http.ResponseWriter, r *http.Request) {
	recordID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	requester := chi.URLParam(r, "requester")
	pointer, err := s.ledger.GetWrappedKeyPointer(r.Context(), callerFrom(r.Context()), recordID, requester)
	if err != nil {
		s.writeLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pointerResponse{Pointer: pointer})
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// writeLedgerError maps ledger sentinels to HTTP statuses. The mapping keeps
// denial responses coarse: the reason detail stays in the server log, not the
// wire, so a denied requester learns only that access was denied.
func (s *Server) writeLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrRecordNotFound),
		errors.Is(err, common.ErrConsentNotFound),
		errors.Is(err, common.ErrPointerNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrNotOwner),
		errors.Is(err, common.ErrNotRequester),
		errors.Is(err, common.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, common.ErrInvalidIdentity),
		errors.Is(err, common.ErrInvalidExpiry),
		errors.Is(err, common.ErrEmptyPayload):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error(r.Context(), "ledger operation failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
