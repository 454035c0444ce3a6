package keyring

import (
	"context"
	"errors"
	"testing"

	"github.com/dkrasnov/consentvault/internal/common"
	"github.com/dkrasnov/consentvault/internal/cryptox"
	"github.com/dkrasnov/consentvault/internal/signer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSigner struct {
	inner signer.Signer
	calls int
}

func (c *countingSigner) Sign(ctx context.Context, id, message string) (string, error) {
	c.calls++
	return c.inner.Sign(ctx, id, message)
}

type failingSigner struct{ err error }

func (f *failingSigner) Sign(context.Context, string, string) (string, error) {
	return "", f.err
}

func TestDeriveOrGet_Deterministic(t *testing.T) {
	s := signer.NewLocalSigner(map[string][]byte{"0xabcd12": []byte("wallet-secret")})
	ctx := context.Background()

	k1, err := DeriveOrGet(ctx, "0xabcd12", s, nil)
	require.NoError(t, err)
	k2, err := DeriveOrGet(ctx, "0xABCD12", s, nil)
	require.NoError(t, err)

	b1, err := k1.Export()
	require.NoError(t, err)
	b2, err := k2.Export()
	require.NoError(t, err)
	assert.Equal(t, b1, b2, "same identity must derive the same key")
	assert.Len(t, b1, cryptox.KeyLen)
}

func TestDeriveOrGet_DifferentIdentitiesDiffer(t *testing.T) {
	s := signer.NewLocalSigner(map[string][]byte{
		"0xaaaa11": []byte("wallet-secret"),
		"0xbbbb22": []byte("wallet-secret"),
	})
	ctx := context.Background()

	k1, err := DeriveOrGet(ctx, "0xaaaa11", s, nil)
	require.NoError(t, err)
	k2, err := DeriveOrGet(ctx, "0xbbbb22", s, nil)
	require.NoError(t, err)

	b1, _ := k1.Export()
	b2, _ := k2.Export()
	assert.NotEqual(t, b1, b2)
}

func TestDeriveOrGet_CacheHitSkipsSigner(t *testing.T) {
	local := signer.NewLocalSigner(map[string][]byte{"0xabcd12": []byte("wallet-secret")})
	counting := &countingSigner{inner: local}
	cache := NewMemoryCache()
	ctx := context.Background()

	k1, err := DeriveOrGet(ctx, "0xabcd12", counting, cache)
	require.NoError(t, err)
	require.Equal(t, 1, counting.calls)

	// Caller persists the key, per the contract.
	cache.Put("0xabcd12", k1)

	k2, err := DeriveOrGet(ctx, "0xabcd12", counting, cache)
	require.NoError(t, err)
	assert.Equal(t, 1, counting.calls, "cache hit must not touch the signer")
	assert.Same(t, k1, k2, "cached key returned unchanged")
}

func TestDeriveOrGet_DoesNotWriteCache(t *testing.T) {
	s := signer.NewLocalSigner(map[string][]byte{"0xabcd12": []byte("wallet-secret")})
	cache := NewMemoryCache()

	_, err := DeriveOrGet(context.Background(), "0xabcd12", s, cache)
	require.NoError(t, err)

	_, ok := cache.Get("0xabcd12")
	assert.False(t, ok, "derivation must leave cache persistence to the caller")
}

func TestDeriveOrGet_SignerRejection(t *testing.T) {
	s := &failingSigner{err: signer.ErrRejected}

	_, err := DeriveOrGet(context.Background(), "0xabcd12", s, nil)
	assert.ErrorIs(t, err, common.ErrSignatureRejected)
}

func TestDeriveOrGet_SignerTransportError(t *testing.T) {
	s := &failingSigner{err: signer.ErrUnavailable}

	_, err := DeriveOrGet(context.Background(), "0xabcd12", s, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, signer.ErrUnavailable)
	assert.False(t, errors.Is(err, common.ErrSignatureRejected))
}

func TestDeriveOrGet_InvalidIdentity(t *testing.T) {
	s := signer.NewLocalSigner(map[string][]byte{"0xabcd12": []byte("wallet-secret")})

	_, err := DeriveOrGet(context.Background(), "", s, nil)
	assert.ErrorIs(t, err, common.ErrDerivationFailed)
}
