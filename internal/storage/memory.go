package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/mesh-intelligence/kennel/pkg/types"
)

// Memory keeps every key in process memory. Data is lost on Close.
// Safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	items  map[string][]byte
	closed bool
}

// NewMemory returns an empty in-memory storage.
func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

func (m *Memory) GetItem(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, types.ErrStorageClosed
	}
	v, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(v), true, nil
}

func (m *Memory) SetItem(_ context.Context, key string, value []byte) error {
	if key == "" {
		return types.ErrInvalidKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return types.ErrStorageClosed
	}
	m.items[key] = cloneBytes(value)
	return nil
}

func (m *Memory) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return types.ErrStorageClosed
	}
	delete(m.items, key)
	return nil
}

func (m *Memory) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, types.ErrStorageClosed
	}
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.items = make(map[string][]byte)
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
