package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps assets in memory. Used in development and tests.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put stores an asset under a synthetic URL.
func (m *MemoryStore) Put(ctx context.Context, key, contentType string, data []byte) (Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[key] = buf
	return Object{Key: key, URL: "memory://" + key}, nil
}

// Delete removes an asset.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("storage: no object %s", key)
	}
	delete(m.objects, key)
	return nil
}

// Get returns a stored asset, for assertions in tests.
func (m *MemoryStore) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	return data, ok
}
