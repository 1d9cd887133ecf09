package storage

import (
	"context"
	"sync"
)

// MemoryTier é o último recurso: some quando o processo termina.
type MemoryTier struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryTier() *MemoryTier {
	return &MemoryTier{data: make(map[string][]byte)}
}

func (m *MemoryTier) Name() string { return "memory" }

func (m *MemoryTier) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryTier) Set(_ context.Context, key string, val []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), val...)
	return nil
}

func (m *MemoryTier) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
