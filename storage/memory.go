package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Memory is a thread-safe in-memory Storage.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]byte
	quota int // total bytes across all values; 0 means unlimited
}

// NewMemory creates an empty in-memory storage without a quota.
func NewMemory() *Memory {
	return &Memory{
		items: make(map[string][]byte),
	}
}

// NewMemoryWithQuota creates an in-memory storage that rejects writes once
// the combined size of all values would exceed quota bytes.
func NewMemoryWithQuota(quota int) *Memory {
	m := NewMemory()
	m.quota = quota
	return m
}

// Get retrieves a stored value.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	// Return a copy to prevent mutation
	result := make([]byte, len(value))
	copy(result, value)
	return result, true, nil
}

// Put stores a value, replacing any previous value for key.
func (m *Memory) Put(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quota > 0 {
		used := len(value)
		for k, v := range m.items {
			if k != key {
				used += len(v)
			}
		}
		if used > m.quota {
			return fmt.Errorf("put %q (%d bytes): %w", key, len(value), ErrQuotaExceeded)
		}
	}

	// Store a copy to prevent mutation
	stored := make([]byte, len(value))
	copy(stored, value)
	m.items[key] = stored
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Failing is a storage that always returns errors.
// Useful for testing error handling paths.
type Failing struct {
	GetErr error
	PutErr error
}

// NewFailing creates a storage that fails with the given errors.
func NewFailing(getErr, putErr error) *Failing {
	if getErr == nil {
		getErr = errors.New("storage get failed")
	}
	if putErr == nil {
		putErr = errors.New("storage put failed")
	}
	return &Failing{GetErr: getErr, PutErr: putErr}
}

// Get always returns an error.
func (f *Failing) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, f.GetErr
}

// Put always returns an error.
func (f *Failing) Put(ctx context.Context, key string, value []byte) error {
	return f.PutErr
}

// Delete always returns an error.
func (f *Failing) Delete(ctx context.Context, key string) error {
	return f.PutErr
}
