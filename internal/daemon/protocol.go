package daemon

import (
	"encoding/json"

	"github.com/leonardcser/ttl-cache/internal/cache"
)

// Simple JSON protocol for the cache daemon over a Unix domain socket.
// Requests and responses are newline-delimited JSON values; a connection
// may carry any number of them in lock step.

const (
	OpGet    = "get"
	OpHas    = "has"
	OpSet    = "set"
	OpTouch  = "touch"
	OpDelete = "delete"
)

// CodeInvalidTTL marks responses rejected by TTL validation.
const CodeInvalidTTL = "invalid_ttl"

type Request struct {
	Op    string      `json:"op"`
	Key   string      `json:"key"`
	Value []byte      `json:"value,omitempty"`
	Extra cache.Extra `json:"extra,omitempty"`
}

type Response struct {
	OK    bool   `json:"ok"`
	Found bool   `json:"found,omitempty"`
	Value []byte `json:"value,omitempty"`
	// TTL carries the item's ttlData in its persisted shape.
	TTL   json.RawMessage `json:"ttl,omitempty"`
	Code  string          `json:"code,omitempty"`
	Error string          `json:"error,omitempty"`
}
