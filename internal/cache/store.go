package cache

import (
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by a Store when a key holds no entry.
var ErrNotFound = errors.New("cache: not found")

// Entry is what a Store persists per key: the value and its auxiliary data.
type Entry struct {
	Value []byte `json:"value"`
	Extra Extra  `json:"extra,omitempty"`
}

// Store defines the minimal storage contract the host cache builds on.
// Expiration is not a store concern; it is layered on by plugins.
type Store interface {
	Get(key string) (Entry, error)
	Put(key string, e Entry) error
	Delete(key string) error
}

// encodeEntry is the on-disk and on-wire layout shared by the persistent
// backends.
func encodeEntry(e Entry) ([]byte, error) { return json.Marshal(e) }

func decodeEntry(b []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Entry{}, err
	}
	return e, nil
}
