package cache

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltStore persists entries in a Bolt database.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
}

type BoltOptions struct {
	// Bucket is the name of the Bolt bucket to use.
	Bucket string
	// Timeout bounds how long Open waits for the file lock.
	Timeout time.Duration
}

// OpenBolt initializes or opens a BoltStore at the given path.
func OpenBolt(path string, opts BoltOptions) (*BoltStore, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 1 * time.Second
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, err
	}
	bucket := []byte("cache")
	if opts.Bucket != "" {
		bucket = []byte(opts.Bucket)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db, bucket: bucket}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the entry stored under key.
func (s *BoltStore) Get(key string) (Entry, error) {
	var raw []byte
	if err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v != nil {
			// v is only valid for the lifetime of the transaction.
			raw = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return Entry{}, err
	}
	if raw == nil {
		return Entry{}, ErrNotFound
	}
	e, err := decodeEntry(raw)
	if err != nil {
		return Entry{}, fmt.Errorf("decode %q: %w", key, err)
	}
	return e, nil
}

// Put stores e under key, replacing any previous entry.
func (s *BoltStore) Put(key string, e Entry) error {
	buf, err := encodeEntry(e)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), buf)
	})
}

// Delete removes a key.
func (s *BoltStore) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}
