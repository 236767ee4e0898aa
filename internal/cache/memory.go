package cache

import (
	lru "github.com/hashicorp/golang-lru"
)

// DefaultCapacity bounds a MemoryStore created with a non-positive size.
const DefaultCapacity = 10000

// MemoryStore keeps entries in process memory. When full it evicts the
// least recently used entry.
type MemoryStore struct {
	items *lru.Cache
}

// NewMemoryStore creates a MemoryStore holding at most capacity entries.
func NewMemoryStore(capacity int) (*MemoryStore, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	items, err := lru.New(capacity)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{items: items}, nil
}

// Get returns a copy of the entry stored under key.
func (s *MemoryStore) Get(key string) (Entry, error) {
	v, ok := s.items.Get(key)
	if !ok {
		return Entry{}, ErrNotFound
	}
	return cloneEntry(v.(Entry)), nil
}

// Put stores a copy of e so later changes by the caller are not observed.
func (s *MemoryStore) Put(key string, e Entry) error {
	s.items.Add(key, cloneEntry(e))
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.items.Remove(key)
	return nil
}

// Len returns the number of entries currently held, expired ones included.
func (s *MemoryStore) Len() int { return s.items.Len() }

// Clear removes all entries.
func (s *MemoryStore) Clear() { s.items.Purge() }

func cloneEntry(e Entry) Entry {
	out := Entry{Extra: e.Extra.Clone()}
	if e.Value != nil {
		out.Value = make([]byte, len(e.Value))
		copy(out.Value, e.Value)
	}
	return out
}
