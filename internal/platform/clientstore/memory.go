package clientstore

import (
	"context"
	"sync"
)

// MemoryStore keeps values in process memory. Used when Redis is not
// configured and in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	scopes map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scopes: make(map[string]map[string]string)}
}

func (m *MemoryStore) Set(_ context.Context, scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kv, ok := m.scopes[scope]
	if !ok {
		kv = make(map[string]string)
		m.scopes[scope] = kv
	}
	kv[key] = value
	return nil
}

func (m *MemoryStore) Get(_ context.Context, scope, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.scopes[scope][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Clear(_ context.Context, scope string) error {
	m.mu.Lock()
	delete(m.scopes, scope)
	m.mu.Unlock()
	return nil
}
