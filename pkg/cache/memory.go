package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// entry is a single cached value with its expiry deadline.
type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a thread-safe in-memory Store with per-key expiry.
// Expired entries are dropped lazily on read and swept opportunistically on
// write, so the map does not grow unbounded between reads.
type Memory struct {
	data map[string]entry
	mu   sync.RWMutex

	// now is replaceable for tests
	now func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Get retrieves the value stored under key, dropping it if expired.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := validateKey(key); err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	if m.now().After(e.expiresAt) {
		m.mu.Lock()
		// Re-check under the write lock; another writer may have refreshed it.
		if cur, ok := m.data[key]; ok && m.now().After(cur.expiresAt) {
			delete(m.data, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}

	// Return a copy to prevent external modification of internal state
	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, true, nil
}

// Set stores value under key with the given time-to-live.
func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be greater than 0, got %v", ttl)
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, e := range m.data {
		if now.After(e.expiresAt) {
			delete(m.data, k)
		}
	}

	m.data[key] = entry{
		value:     stored,
		expiresAt: now.Add(ttl),
	}
	return nil
}

// Delete removes the entry stored under key.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Len reports the number of entries currently held, including any that have
// expired but not yet been swept.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Ensure Memory implements Store
var _ Store = (*Memory)(nil)
