package store

import (
	"context"
	"sync"
)

// MemoryStore keeps encoded documents in a map. It backs tests and the
// default single-process development mode.
type MemoryStore struct {
	codec
}

type memoryBackend struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{codec{backend: &memoryBackend{docs: make(map[string][]byte)}}}
}

func (m *memoryBackend) get(_ context.Context, name string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.docs[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (m *memoryBackend) put(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[name] = append([]byte(nil), data...)
	return nil
}

func (m *memoryBackend) ping(context.Context) error { return nil }
func (m *memoryBackend) close() error               { return nil }
