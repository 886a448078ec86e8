package kv

import (
	"fmt"
	"sync"
)

// MemoryBackend is a byte-capacity-limited in-memory Backend. It models the
// hard, unannounced quota of a browser's local storage and is the backend the
// store falls back to when the configured one is unavailable. A capacity of
// zero means unlimited.
type MemoryBackend struct {
	mu       sync.Mutex
	data     map[string]string
	capacity int
	used     int
}

// NewMemoryBackend creates a MemoryBackend with the given capacity in bytes.
func NewMemoryBackend(capacityBytes int) *MemoryBackend {
	return &MemoryBackend{
		data:     make(map[string]string),
		capacity: capacityBytes,
	}
}

// Get returns the value for key and whether it was present
func (m *MemoryBackend) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.data[key]
	return value, ok
}

// Set stores value under key, failing with ErrCapacityExceeded when the
// write would push usage past the configured capacity. A rejected write
// leaves the prior value untouched.
func (m *MemoryBackend) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	newUsed := m.used + len(key) + len(value)
	if prior, ok := m.data[key]; ok {
		newUsed -= len(key) + len(prior)
	}

	if m.capacity > 0 && newUsed > m.capacity {
		return fmt.Errorf("setting %q (%d bytes over): %w", key, newUsed-m.capacity, ErrCapacityExceeded)
	}

	m.data[key] = value
	m.used = newUsed
	return nil
}

// Remove deletes key
func (m *MemoryBackend) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prior, ok := m.data[key]; ok {
		m.used -= len(key) + len(prior)
		delete(m.data, key)
	}
}

// Keys enumerates every key currently present
func (m *MemoryBackend) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}
	return keys
}

// UsedBytes returns the backend's current bookkeeping of stored bytes
func (m *MemoryBackend) UsedBytes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used
}
