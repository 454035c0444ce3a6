package keyring

import (
	"github.com/dkrasnov/consentvault/internal/cryptox"
	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is an in-process Cache over go-cache. Entries never expire;
// the key stays usable for the lifetime of the caller session, per the
// key-handling policy (no at-rest persistence of unwrapped keys).
type MemoryCache struct {
	c *gocache.Cache
}

// NewMemoryCache constructs an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{c: gocache.New(gocache.NoExpiration, 0)}
}

func (m *MemoryCache) Get(identity string) (*cryptox.ContentKey, bool) {
	v, ok := m.c.Get(identity)
	if !ok {
		return nil, false
	}
	key, ok := v.(*cryptox.ContentKey)
	return key, ok
}

func (m *MemoryCache) Put(identity string, key *cryptox.ContentKey) {
	m.c.Set(identity, key, gocache.NoExpiration)
}
