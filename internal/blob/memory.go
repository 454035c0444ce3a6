package blob

import (
	"context"
	"sync"

	"github.com/dkrasnov/consentvault/internal/common"
	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for tests and local runs.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", common.ErrEmptyPayload
	}
	b := make([]byte, len(data))
	copy(b, data)

	address := uuid.NewString()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[address] = b
	return address, nil
}

func (m *MemoryStore) Get(_ context.Context, address string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.blobs[address]
	if !ok {
		return nil, common.ErrBlobNotFound
	}
	b := make([]byte, len(data))
	copy(b, data)
	return b, nil
}
