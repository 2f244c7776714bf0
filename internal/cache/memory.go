package cache

import (
	"context"
	"sync"
)

type memEntry struct {
	value    []byte
	accessed int64 // monotonic sequence, not wall time
}

// MemoryStore is a non-durable Store for a single run, used when the SQLite
// cache is disabled or unavailable. It applies the same byte-capacity LRU
// policy, evicting one entry at a time.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]*memEntry
	capacity int64
	total    int64
	seq      int64
}

// NewMemoryStore builds an in-memory store with the given byte capacity.
func NewMemoryStore(capacity int64) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacityBytes
	}
	return &MemoryStore{
		entries:  make(map[string]*memEntry),
		capacity: capacity,
	}
}

// Get returns the stored value and refreshes its access order.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	m.seq++
	e.accessed = m.seq
	return e.value, true
}

// Set stores the value, evicting least-recently-accessed entries until the
// new total fits under capacity.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.entries[key]; ok {
		m.total -= int64(len(old.value))
		delete(m.entries, key)
	}

	size := int64(len(value))
	for m.total+size > m.capacity && len(m.entries) > 0 {
		var oldestKey string
		oldest := int64(-1)
		for k, e := range m.entries {
			if oldest < 0 || e.accessed < oldest {
				oldest = e.accessed
				oldestKey = k
			}
		}
		m.total -= int64(len(m.entries[oldestKey].value))
		delete(m.entries, oldestKey)
	}

	m.seq++
	m.entries[key] = &memEntry{value: value, accessed: m.seq}
	m.total += size
	return true
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
