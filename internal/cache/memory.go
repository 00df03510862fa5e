package cache

import (
	"sync"
	"time"
)

// MemoryStore keeps encoded records in memory. Records are stored encoded so
// that callers cannot mutate a saved record through a returned pointer.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string][]byte
	stats Stats
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

// Load returns the record saved under name.
func (m *MemoryStore) Load(name string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.LastAccess = time.Now()

	data, ok := m.items[name]
	if !ok {
		m.stats.Misses++
		return nil, ErrCacheMiss
	}
	rec, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	m.stats.Hits++
	return rec, nil
}

// Save stores rec under rec.Name.
func (m *MemoryStore) Save(rec *Record) error {
	data, err := Marshal(rec)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[rec.Name] = data
	m.stats.Writes++
	m.stats.LastAccess = time.Now()
	return nil
}

// Put stores raw bytes under name, bypassing encoding. Tests use it to plant
// corrupt or foreign records.
func (m *MemoryStore) Put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[name] = append([]byte(nil), data...)
}

// Delete removes the record for name.
func (m *MemoryStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, name)
	return nil
}

// Stats returns store statistics.
func (m *MemoryStore) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
