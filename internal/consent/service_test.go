package consent

import (
	"context"
	"testing"
	"time"

	"github.com/dkrasnov/consentvault/internal/common"
	"github.com/dkrasnov/consentvault/internal/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLedger records the calls the façade makes and returns canned data.
type fakeLedger struct {
	ledger.Ledger

	grantCalls  int
	consentsFor []ledger.Consent
}

func (f *fakeLedger) Grant(ctx context.Context, caller, requester string, recordID int64, purpose string, expiresAt int64) (int64, error) {
	f.grantCalls++
	return 7, nil
}

func (f *fakeLedger) CreateRecord(ctx context.Context, caller, title, description, contentHash string) (int64, error) {
	return 3, nil
}

func (f *fakeLedger) ListConsentsFor(ctx context.Context, owner, requester string) ([]ledger.Consent, error) {
	return f.consentsFor, nil
}

func TestService_Grant_ValidatesBeforeIO(t *testing.T) {
	fake := &fakeLedger{}
	s := NewService(fake)
	ctx := context.Background()

	past := time.Now().Add(-time.Minute).Unix()
	_, err := s.Grant(ctx, "0xaaaa11", "0xbbbb22", 1, "research", past)
	assert.ErrorIs(t, err, common.ErrInvalidExpiry)

	_, err = s.Grant(ctx, "", "0xbbbb22", 1, "research", time.Now().Add(time.Hour).Unix())
	assert.ErrorIs(t, err, common.ErrInvalidIdentity)

	_, err = s.Grant(ctx, "0xaaaa11", "not an id", 1, "research", time.Now().Add(time.Hour).Unix())
	assert.ErrorIs(t, err, common.ErrInvalidIdentity)

	assert.Zero(t, fake.grantCalls, "validation failures must not reach the ledger")

	id, err := s.Grant(ctx, "0xAAAA11", "0xbbbb22", 1, "research", time.Now().Add(time.Hour).Unix())
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, 1, fake.grantCalls)
}

func TestService_CreateRecord_RequiresContentHash(t *testing.T) {
	s := NewService(&fakeLedger{})

	_, err := s.CreateRecord(context.Background(), "0xaaaa11", "title", "desc", "")
	assert.ErrorIs(t, err, common.ErrEmptyPayload)

	id, err := s.CreateRecord(context.Background(), "0xaaaa11", "title", "desc", "hash")
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
}

func TestService_CheckAccess_FreshEvaluation(t *testing.T) {
	fake := &fakeLedger{
		consentsFor: []ledger.Consent{{
			ID:        1,
			Owner:     "0xaaaa11",
			Requester: "0xbbbb22",
			RecordID:  5,
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
			Active:    true,
		}},
	}
	s := NewService(fake)

	d, err := s.CheckAccess(context.Background(), "0xaaaa11", "0xbbbb22", 5)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1), d.ConsentID)

	// Ledger state changed (revocation elsewhere): the next check sees it.
	fake.consentsFor[0].Active = false
	d, err = s.CheckAccess(context.Background(), "0xaaaa11", "0xbbbb22", 5)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, DenyRevoked, d.Reason)
}
