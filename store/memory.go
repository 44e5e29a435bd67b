package store

import (
	"bytes"
	"io/fs"
	"slices"
	"sync"
)

// MemoryStore keeps configurations in memory. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	saves   int
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

// Load returns a copy of the configuration stored under name.
func (m *MemoryStore) Load(name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.entries[name]
	if !ok {
		return nil, fmtErrorf("config '%s': %w", name, fs.ErrNotExist)
	}
	return bytes.Clone(data), nil
}

// Save stores a copy of data under name.
func (m *MemoryStore) Save(name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[name] = bytes.Clone(data)
	m.saves++
	return nil
}

// Erase removes every configuration.
func (m *MemoryStore) Erase() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.entries)
	return nil
}

// Names lists the stored configurations in sorted order.
func (m *MemoryStore) Names() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.entries))
	for name := range m.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Saves returns the number of successful Save calls.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
