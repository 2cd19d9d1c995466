package guestcart

import (
	"context"
	"sync"
)

// MemoryKV implements KV with in-memory storage. Used in tests and as the
// degraded backend when no persistent store is reachable at boot.
type MemoryKV struct {
	mu      sync.RWMutex
	value   []byte
	present bool
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{}
}

func (m *MemoryKV) Get(context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.present {
		return nil, ErrNotFound
	}
	out := make([]byte, len(m.value))
	copy(out, m.value)
	return out, nil
}

func (m *MemoryKV) Set(_ context.Context, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = make([]byte, len(value))
	copy(m.value, value)
	m.present = true
	return nil
}

func (m *MemoryKV) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = nil
	m.present = false
	return nil
}
