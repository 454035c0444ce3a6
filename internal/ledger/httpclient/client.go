// Package httpclient implements the ledger.Ledger interface over the ledger
// server's HTTP API. The caller identity travels in the bearer token the
// client was built with, so the per-call caller argument must match the
// token's identity.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dkrasnov/consentvault/internal/common"
	"github.com/dkrasnov/consentvault/internal/ledger"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New builds a client for the ledger API at baseURL authenticating with the
// given bearer token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

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

func (c *Client) CreateRecord(ctx context.Context, caller, title, description, contentHash string) (int64, error) {
	var out idResponse
	err := c.do(ctx, http.MethodPost, "/api/records", createRecordRequest{
		Title:       title,
		Description: description,
		ContentHash: contentHash,
	}, &out, nil)
	if err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) GetRecord(ctx context.Context, id int64) (ledger.Record, error) {
	var out ledger.Record
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/records/%d", id), nil, &out, common.ErrRecordNotFound)
	return out, err
}

func (c *Client) ListRecordsByOwner(ctx context.Context, owner string) ([]ledger.Record, error) {
	var out []ledger.Record
	err := c.do(ctx, http.MethodGet, "/api/records?owner="+url.QueryEscape(owner), nil, &out, nil)
	return out, err
}

func (c *Client) Grant(ctx context.Context, caller, requester string, recordID int64, purpose string, expiresAt int64) (int64, error) {
	var out idResponse
	err := c.do(ctx, http.MethodPost, "/api/consents", grantRequest{
		Requester: requester,
		RecordID:  recordID,
		Purpose:   purpose,
		ExpiresAt: expiresAt,
	}, &out, common.ErrRecordNotFound)
	if err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) Revoke(ctx context.Context, caller string, consentID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/consents/%d/revoke", consentID), nil, nil, common.ErrConsentNotFound)
}

func (c *Client) GetConsent(ctx context.Context, id int64) (ledger.Consent, error) {
	var out ledger.Consent
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/consents/%d", id), nil, &out, common.ErrConsentNotFound)
	return out, err
}

func (c *Client) ListConsentsByOwner(ctx context.Context, owner string) ([]ledger.Consent, error) {
	var out []ledger.Consent
	err := c.do(ctx, http.MethodGet, "/api/consents?owner="+url.QueryEscape(owner), nil, &out, nil)
	return out, err
}

func (c *Client) ListConsentsFor(ctx context.Context, owner, requester string) ([]ledger.Consent, error) {
	var out []ledger.Consent
	path := "/api/consents?owner=" + url.QueryEscape(owner) + "&requester=" + url.QueryEscape(requester)
	err := c.do(ctx, http.MethodGet, path, nil, &out, nil)
	return out, err
}

func (c *Client) StoreWrappedKeyPointer(ctx context.Context, caller string, recordID int64, requester, pointer string) error {
	path := fmt.Sprintf("/api/records/%d/keys/%s", recordID, url.PathEscape(requester))
	return c.do(ctx, http.MethodPut, path, storePointerRequest{Pointer: pointer}, nil, common.ErrRecordNotFound)
}

func (c *Client) GetWrappedKeyPointer(ctx context.Context, caller string, recordID int64, requester string) (string, error) {
	var out pointerResponse
	path := fmt.Sprintf("/api/records/%d/keys/%s", recordID, url.PathEscape(requester))
	err := c.do(ctx, http.MethodGet, path, nil, &out, common.ErrPointerNotFound)
	if err != nil {
		return "", err
	}
	return out.Pointer, nil
}

// do runs one API call. notFound is the sentinel a 404 maps to for this
// endpoint; other statuses map uniformly.
func (c *Client) do(ctx context.Context, method, path string, body, out any, notFound error) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.statusError(resp, notFound)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) statusError(resp *http.Response, notFound error) error {
	var apiErr errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&apiErr)

	switch resp.StatusCode {
	case http.StatusNotFound:
		if notFound != nil {
			return notFound
		}
		return common.ErrRecordNotFound
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", common.ErrAccessDenied, apiErr.Error)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", common.ErrInvalidToken, apiErr.Error)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", common.ErrMalformed, apiErr.Error)
	default:
		return fmt.Errorf("%w: status %d: %s", common.ErrUnavailable, resp.StatusCode, apiErr.Error)
	}
}
