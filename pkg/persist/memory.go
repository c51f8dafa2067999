package persist

import (
	"context"
	"sync"
)

// MemoryAdapter keeps collections in-process. Used by tests and ephemeral
// runs; data does not survive a restart.
type MemoryAdapter struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryAdapter initializes an empty in-memory adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{data: make(map[string][]byte)}
}

// Load returns the stored payload for the collection.
func (m *MemoryAdapter) Load(_ context.Context, collection string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[collection]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

// Save replaces the stored payload for the collection.
func (m *MemoryAdapter) Save(_ context.Context, collection string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	m.data[collection] = stored
	return nil
}
