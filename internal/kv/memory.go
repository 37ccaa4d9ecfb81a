package kv

import (
	"context"
	"sync"
)

// Memory is an in-process Store. With a quota it rejects writes that would
// push the total size of keys and values past the limit.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
	quota  int
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithQuota limits the total bytes of keys plus values. Zero means unlimited.
func WithQuota(bytes int) MemoryOption {
	return func(m *Memory) { m.quota = bytes }
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{values: make(map[string]string)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quota > 0 {
		used := len(key) + len(value)
		for k, v := range m.values {
			if k != key {
				used += len(k) + len(v)
			}
		}
		if used > m.quota {
			return ErrQuotaExceeded
		}
	}

	m.values[key] = value
	return nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
	return nil
}
