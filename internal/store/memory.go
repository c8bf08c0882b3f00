package store

import (
	"context"
	"sync"

	"github.com/mediastore/storefront/internal/domain"
)

// MemoryStore keeps encoded snapshots in process memory. Values are stored
// encoded so callers never share state with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.data[key]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return decode(raw)
}

func (m *MemoryStore) Set(_ context.Context, key string, cart *domain.Cart) error {
	raw, err := encode(cart)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// SetRaw stores bytes as-is. Used to seed corrupt snapshots in tests.
func (m *MemoryStore) SetRaw(key string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
}
