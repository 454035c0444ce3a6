package keyshare

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dkrasnov/consentvault/internal/blob"
	"github.com/dkrasnov/consentvault/internal/common"
	"github.com/dkrasnov/consentvault/internal/cryptox"
	"github.com/dkrasnov/consentvault/internal/ledger/memory"
	"github.com/dkrasnov/consentvault/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "0xaaaa000000000000000000000000000000000001"
	bob   = "0xbbbb000000000000000000000000000000000002"
	carol = "0xcccc000000000000000000000000000000000003"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fixture struct {
	ledger *memory.Ledger
	blobs  *blob.MemoryStore
	key    *cryptox.ContentKey

	recordID  int64
	consentID int64
}

// setup creates a record owned by alice, encrypted under a fresh key, with a
// one-hour consent to bob.
func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	led := memory.New()
	blobs := blob.NewMemoryStore()

	key, err := cryptox.NewContentKey(common.GenerateRandByteArray(cryptox.KeyLen))
	require.NoError(t, err)

	payload, err := cryptox.Seal([]byte("record payload"), key)
	require.NoError(t, err)
	contentHash, err := blobs.Put(ctx, payload)
	require.NoError(t, err)

	recordID, err := led.CreateRecord(ctx, alice, "r1", "test record", contentHash)
	require.NoError(t, err)

	consentID, err := led.Grant(ctx, alice, bob, recordID, "research", time.Now().Add(time.Hour).Unix())
	require.NoError(t, err)

	return &fixture{ledger: led, blobs: blobs, key: key, recordID: recordID, consentID: consentID}
}

func shareProtocol(t *testing.T, f *fixture, caller string) *Protocol {
	t.Helper()
	p, err := New(caller, f.ledger, f.blobs, discardLogger())
	require.NoError(t, err)
	return p
}

func TestShareRecover_RoundTrip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	owner := shareProtocol(t, f, alice)
	require.NoError(t, owner.Share(ctx, f.key, f.recordID, bob))

	requester := shareProtocol(t, f, bob)
	recovered, err := requester.Recover(ctx, bob, f.recordID)
	require.NoError(t, err)
	assert.Equal(t, cryptox.UsageDecryptOnly, recovered.Usage())

	// The recovered key decrypts what the original key encrypted.
	wire, err := cryptox.Seal([]byte("any payload"), f.key)
	require.NoError(t, err)
	plaintext, err := cryptox.Decrypt(wire, recovered)
	require.NoError(t, err)
	assert.Equal(t, []byte("any payload"), plaintext)
}

func TestShare_LastWriteWins(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	owner := shareProtocol(t, f, alice)
	require.NoError(t, owner.Share(ctx, f.key, f.recordID, bob))

	// A second share for the same pair supersedes the first.
	key2, err := cryptox.NewContentKey(common.GenerateRandByteArray(cryptox.KeyLen))
	require.NoError(t, err)
	require.NoError(t, owner.Share(ctx, key2, f.recordID, bob))

	requester := shareProtocol(t, f, bob)
	recovered, err := requester.Recover(ctx, bob, f.recordID)
	require.NoError(t, err)

	wire, err := cryptox.Seal([]byte("probe"), key2)
	require.NoError(t, err)
	plaintext, err := cryptox.Decrypt(wire, recovered)
	require.NoError(t, err)
	assert.Equal(t, []byte("probe"), plaintext)
}

func TestRecover_DeniedAfterRevoke(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	owner := shareProtocol(t, f, alice)
	require.NoError(t, owner.Share(ctx, f.key, f.recordID, bob))

	requester := shareProtocol(t, f, bob)
	_, err := requester.Recover(ctx, bob, f.recordID)
	require.NoError(t, err)

	require.NoError(t, f.ledger.Revoke(ctx, alice, f.consentID))

	_, err = requester.Recover(ctx, bob, f.recordID)
	require.Error(t, err)
	assert.True(t, IsAccessDenied(err))

	var stepError *StepError
	require.ErrorAs(t, err, &stepError)
	assert.Equal(t, StepReadPointer, stepError.Step)
}

func TestRecover_WrongRequesterDenied(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	owner := shareProtocol(t, f, alice)
	require.NoError(t, owner.Share(ctx, f.key, f.recordID, bob))

	// Carol was never granted consent; the pointer for (record, bob)
	// existing must not help her.
	outsider := shareProtocol(t, f, carol)
	_, err := outsider.Recover(ctx, carol, f.recordID)
	require.Error(t, err)
	assert.True(t, IsAccessDenied(err))
}

func TestShare_DecryptOnlyKeyCannotBeShared(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	owner := shareProtocol(t, f, alice)
	require.NoError(t, owner.Share(ctx, f.key, f.recordID, bob))

	requester := shareProtocol(t, f, bob)
	recovered, err := requester.Recover(ctx, bob, f.recordID)
	require.NoError(t, err)

	// A recovered key is not exportable, so it cannot be re-shared onward.
	err = requester.Share(ctx, recovered, f.recordID, carol)
	require.Error(t, err)
	var stepError *StepError
	require.ErrorAs(t, err, &stepError)
	assert.Equal(t, StepExportKey, stepError.Step)
}

func TestRecover_MalformedKeyData(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// Store a non-hex blob and point the ledger at it directly.
	pointer, err := f.blobs.Put(ctx, []byte("not hex at all!"))
	require.NoError(t, err)
	require.NoError(t, f.ledger.StoreWrappedKeyPointer(ctx, alice, f.recordID, bob, pointer))

	requester := shareProtocol(t, f, bob)
	_, err = requester.Recover(ctx, bob, f.recordID)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMalformedKeyData)

	var stepError *StepError
	require.ErrorAs(t, err, &stepError)
	assert.Equal(t, StepDecodeKey, stepError.Step)
}

func TestRecover_FetchFailed(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// Ledger points at a blob that does not exist.
	require.NoError(t, f.ledger.StoreWrappedKeyPointer(ctx, alice, f.recordID, bob, "dangling"))

	requester := shareProtocol(t, f, bob)
	_, err := requester.Recover(ctx, bob, f.recordID)
	require.Error(t, err)

	var stepError *StepError
	require.ErrorAs(t, err, &stepError)
	assert.Equal(t, StepFetchBlob, stepError.Step)
}

func TestRecover_WrongKeyLength(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// Valid hex but not a 32-byte key.
	pointer, err := f.blobs.Put(ctx, []byte("deadbeef"))
	require.NoError(t, err)
	require.NoError(t, f.ledger.StoreWrappedKeyPointer(ctx, alice, f.recordID, bob, pointer))

	requester := shareProtocol(t, f, bob)
	_, err = requester.Recover(ctx, bob, f.recordID)
	require.Error(t, err)

	var stepError *StepError
	require.ErrorAs(t, err, &stepError)
	assert.Equal(t, StepImportKey, stepError.Step)
}

// TestEndToEndScenario walks the full flow: upload, grant, share, recover,
// decrypt, revoke, recover again.
func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()

	led := memory.New()
	blobs := blob.NewMemoryStore()

	// Owner derives a key and uploads an encrypted record.
	key, err := cryptox.NewContentKey(common.GenerateRandByteArray(cryptox.KeyLen))
	require.NoError(t, err)

	payload := []byte("patient history: ...")
	wire, err := cryptox.Seal(payload, key)
	require.NoError(t, err)
	contentHash, err := blobs.Put(ctx, wire)
	require.NoError(t, err)

	recordID, err := led.CreateRecord(ctx, alice, "history", "2026 visit", contentHash)
	require.NoError(t, err)

	// Owner grants bob a one-hour consent and shares the key.
	consentID, err := led.Grant(ctx, alice, bob, recordID, "treatment", time.Now().Add(time.Hour).Unix())
	require.NoError(t, err)

	owner, err := New(alice, led, blobs, discardLogger())
	require.NoError(t, err)
	require.NoError(t, owner.Share(ctx, key, recordID, bob))

	// Requester recovers the key and decrypts the payload.
	requester, err := New(bob, led, blobs, discardLogger())
	require.NoError(t, err)

	recovered, err := requester.Recover(ctx, bob, recordID)
	require.NoError(t, err)

	rec, err := led.GetRecord(ctx, recordID)
	require.NoError(t, err)
	fetched, err := blobs.Get(ctx, rec.ContentHash)
	require.NoError(t, err)
	plaintext, err := cryptox.Decrypt(fetched, recovered)
	require.NoError(t, err)
	assert.Equal(t, payload, plaintext)

	// Owner revokes; recovery now fails with an access denial.
	require.NoError(t, led.Revoke(ctx, alice, consentID))
	_, err = requester.Recover(ctx, bob, recordID)
	require.Error(t, err)
	assert.True(t, IsAccessDenied(err))
}
