// Package keyshare implements the key-distribution protocol: an owner
// exports a record's content key into the blob store and records a pointer
// on the ledger; a consented requester later recovers a decrypt-only copy.
//
// The shared key is hex-encoded, not wrapped toward the requester's public
// key; transport confidentiality rests on the opacity of the pointer and the
// consent-gated pointer read. That is a documented property of the protocol,
// preserved as-is for wire compatibility.
package keyshare

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dkrasnov/consentvault/internal/blob"
	"github.com/dkrasnov/consentvault/internal/common"
	"github.com/dkrasnov/consentvault/internal/cryptox"
	"github.com/dkrasnov/consentvault/internal/identity"
	"github.com/dkrasnov/consentvault/internal/ledger"
	"github.com/dkrasnov/consentvault/internal/logging"
)

// Protocol runs the share and recover sequences on behalf of one
// authenticated caller. Every call is an independent transaction; no state
// is kept between calls and no step is retried internally.
type Protocol struct {
	caller string
	ledger ledger.Ledger
	blobs  blob.Store
	logger logging.Logger
}

// New binds a Protocol to the caller identity. The owner side calls Share;
// the requester side calls Recover with its own identity.
func New(caller string, l ledger.Ledger, blobs blob.Store, logger logging.Logger) (*Protocol, error) {
	canonical, err := identity.Normalize(caller)
	if err != nil {
		return nil, err
	}
	return &Protocol{
		caller: canonical,
		ledger: l,
		blobs:  blobs,
		logger: logger.With("module", "keyshare", "caller", canonical),
	}, nil
}

// Share exports key, stores its hex encoding in the blob store, and records
// the resulting pointer for (recordID, requester) on the ledger. A later
// share for the same pair supersedes the pointer (last-write-wins);
// concurrent shares race and the loser's blob becomes unreachable.
//
// On failure the returned error names the step that failed and nothing
// after it has run; the caller retries the whole operation.
func (p *Protocol) Share(ctx context.Context, key *cryptox.ContentKey, recordID int64, requester string) error {
	grantee, err := identity.Normalize(requester)
	if err != nil {
		return stepErr(StepRecordPointer, err)
	}

	raw, err := key.Export()
	if err != nil {
		return stepErr(StepExportKey, err)
	}
	defer common.WipeByteArray(raw)

	encoded := hex.EncodeToString(raw)

	pointer, err := p.blobs.Put(ctx, []byte(encoded))
	if err != nil {
		return stepErr(StepStoreBlob, err)
	}

	if err := p.ledger.StoreWrappedKeyPointer(ctx, p.caller, recordID, grantee, pointer); err != nil {
		return stepErr(StepRecordPointer, err)
	}

	p.logger.Info(ctx, "content key shared",
		"record_id", recordID, "requester", grantee, "pointer", pointer)
	return nil
}

// Recover reconstitutes the content key for recordID on behalf of requester.
// The ledger re-verifies, at read time, that the caller is the requester and
// that a currently-valid consent exists for the pair; stale Allow decisions
// are never honored. The returned key is restricted to decrypt-only use.
func (p *Protocol) Recover(ctx context.Context, requester string, recordID int64) (*cryptox.ContentKey, error) {
	grantee, err := identity.Normalize(requester)
	if err != nil {
		return nil, stepErr(StepReadPointer, err)
	}

	pointer, err := p.ledger.GetWrappedKeyPointer(ctx, p.caller, recordID, grantee)
	if err != nil {
		return nil, stepErr(StepReadPointer, err)
	}

	encoded, err := p.blobs.Get(ctx, pointer)
	if err != nil {
		return nil, stepErr(StepFetchBlob, err)
	}
	if len(encoded) == 0 {
		return nil, stepErr(StepFetchBlob, fmt.Errorf("%w: empty blob", common.ErrBlobNotFound))
	}

	raw, err := hex.DecodeString(string(encoded))
	if err != nil {
		return nil, stepErr(StepDecodeKey, fmt.Errorf("%w: %w", common.ErrMalformedKeyData, err))
	}
	defer common.WipeByteArray(raw)

	key, err := cryptox.ImportDecryptOnlyKey(raw)
	if err != nil {
		return nil, stepErr(StepImportKey, err)
	}

	p.logger.Debug(ctx, "content key recovered", "record_id", recordID, "requester", grantee)
	return key, nil
}

// IsAccessDenied reports whether err is a recovery failure caused by the
// consent gate rather than transport or data problems.
func IsAccessDenied(err error) bool {
	return errors.Is(err, common.ErrAccessDenied)
}
