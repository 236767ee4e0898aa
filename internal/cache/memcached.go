package cache

import (
	"errors"
	"fmt"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcachedStore keeps JSON-encoded entries in memcached.
// Memcached may still drop entries on its own under memory pressure.
// Keys longer than 250 bytes or containing spaces or control characters
// are rejected with memcache.ErrMalformedKey.
type MemcachedStore struct {
	client *memcache.Client
}

// NewMemcachedStore creates a new memcached-backed store.
// The serverList should contain memcached server addresses like ["localhost:11211"].
func NewMemcachedStore(serverList ...string) *MemcachedStore {
	return &MemcachedStore{client: memcache.New(serverList...)}
}

func (s *MemcachedStore) Get(key string) (Entry, error) {
	item, err := s.client.Get(key)
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	e, err := decodeEntry(item.Value)
	if err != nil {
		return Entry{}, fmt.Errorf("decode %q: %w", key, err)
	}
	return e, nil
}

func (s *MemcachedStore) Put(key string, e Entry) error {
	b, err := encodeEntry(e)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.client.Set(&memcache.Item{Key: key, Value: b})
}

func (s *MemcachedStore) Delete(key string) error {
	err := s.client.Delete(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}
