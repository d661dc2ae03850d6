package internal

import (
	"sort"
	"strings"
	"sync"
)

// KVStore is a string key-value store. Values are opaque strings, usually JSON.
// Get returns ErrKeyNotFound (possibly wrapped) for missing keys.
type KVStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Keys(prefix string) ([]string, error)
	Close() error
}

// MemoryKV is an in-process KVStore, used by tests and ephemeral runs
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string

	// FailWrites makes Set and Delete fail, simulating a full or read-only store
	FailWrites error
}

// NewMemoryKV creates an empty MemoryKV
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", &StorageError{Path: key, Op: "read", Err: ErrKeyNotFound}
	}
	return v, nil
}

func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return &StorageError{Path: key, Op: "write", Err: m.FailWrites}
	}
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return &StorageError{Path: key, Op: "delete", Err: m.FailWrites}
	}
	delete(m.data, key)
	return nil
}

func (m *MemoryKV) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryKV) Close() error { return nil }
