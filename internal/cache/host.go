package cache

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Extra is the per-key auxiliary data extensions attach to an entry.
type Extra map[string]any

// Clone returns a shallow copy of e. A nil Extra stays nil.
func (e Extra) Clone() Extra {
	if e == nil {
		return nil
	}
	out := make(Extra, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Item is a cached value together with its auxiliary data.
type Item struct {
	Key   string
	Value []byte
	Extra Extra
}

// Instance is the narrow set of capabilities a plugin may use on its host.
type Instance interface {
	GetExtra(key string) (Extra, error)
	SetExtra(key string, extra Extra) error
	RemoveItem(key string) error
}

// SetPayload is threaded through preSetItem hooks.
type SetPayload struct {
	Cache Instance
	Key   string
	Value []byte
	Extra Extra
}

// HasPayload is threaded through postHasItem hooks.
type HasPayload struct {
	Cache  Instance
	Key    string
	Result bool
}

// GetPayload is threaded through postGetItem hooks. Item is nil on a miss.
type GetPayload struct {
	Cache Instance
	Key   string
	Item  *Item
}

// Hooks holds the lifecycle callbacks a plugin can attach. Nil slots are skipped.
type Hooks struct {
	PreSetItem  func(SetPayload) (SetPayload, error)
	PostHasItem func(HasPayload) (HasPayload, error)
	PostGetItem func(GetPayload) (GetPayload, error)
}

// Extensions maps operation names to values bound to one cache instance.
type Extensions map[string]any

// Plugin extends a Cache with hooks and named extension operations.
type Plugin interface {
	Hooks() Hooks
	CreateExtensions(inst Instance) Extensions
}

// Cache is the host cache. It owns storage, runs plugin hooks around its
// own operations and exposes plugin extensions.
//
// Cache is not safe for concurrent use. Hooks call back into the cache
// inline, so callers that share a Cache must serialize every operation,
// extension calls included.
type Cache struct {
	store      Store
	plugins    []Plugin
	hooks      []Hooks
	extensions Extensions
	log        *zap.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithPlugin registers p. Hooks run in registration order.
func WithPlugin(p Plugin) Option {
	return func(c *Cache) { c.plugins = append(c.plugins, p) }
}

// WithLogger sets the logger used for cache operations.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a Cache on top of store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{store: store, extensions: Extensions{}, log: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	for _, p := range c.plugins {
		c.hooks = append(c.hooks, p.Hooks())
		for name, ext := range p.CreateExtensions(c) {
			c.extensions[name] = ext
		}
	}
	c.plugins = nil
	return c
}

// Extension returns the extension registered under name.
func (c *Cache) Extension(name string) (any, bool) {
	ext, ok := c.extensions[name]
	return ext, ok
}

// SetItem stores value under key. Every preSetItem hook sees the payload
// produced by the previous one; the first hook error aborts the write.
func (c *Cache) SetItem(key string, value []byte, extra Extra) error {
	p := SetPayload{Cache: c, Key: key, Value: value, Extra: extra}
	for _, h := range c.hooks {
		if h.PreSetItem == nil {
			continue
		}
		var err error
		if p, err = h.PreSetItem(p); err != nil {
			return fmt.Errorf("cache: set %q: %w", key, err)
		}
	}
	if err := c.store.Put(p.Key, Entry{Value: p.Value, Extra: p.Extra}); err != nil {
		return fmt.Errorf("cache: set %q: %w", key, err)
	}
	c.log.Debug("item stored", zap.String("key", p.Key), zap.Int("size", len(p.Value)))
	return nil
}

// HasItem reports whether key exists after postHasItem hooks had their say.
func (c *Cache) HasItem(key string) (bool, error) {
	_, found, err := c.lookup(key)
	if err != nil {
		return false, err
	}
	p := HasPayload{Cache: c, Key: key, Result: found}
	for _, h := range c.hooks {
		if h.PostHasItem == nil {
			continue
		}
		if p, err = h.PostHasItem(p); err != nil {
			return false, fmt.Errorf("cache: has %q: %w", key, err)
		}
	}
	return p.Result, nil
}

// GetItem returns the item stored under key, or nil when there is none.
func (c *Cache) GetItem(key string) (*Item, error) {
	e, found, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	p := GetPayload{Cache: c, Key: key}
	if found {
		p.Item = &Item{Key: key, Value: e.Value, Extra: e.Extra}
	}
	for _, h := range c.hooks {
		if h.PostGetItem == nil {
			continue
		}
		if p, err = h.PostGetItem(p); err != nil {
			return nil, fmt.Errorf("cache: get %q: %w", key, err)
		}
	}
	return p.Item, nil
}

// GetExtra returns a copy of the auxiliary data stored for key, or nil.
func (c *Cache) GetExtra(key string) (Extra, error) {
	e, found, err := c.lookup(key)
	if err != nil || !found {
		return nil, err
	}
	return e.Extra.Clone(), nil
}

// SetExtra replaces the auxiliary data stored for key. It is a no-op for
// keys that hold no value.
func (c *Cache) SetExtra(key string, extra Extra) error {
	e, found, err := c.lookup(key)
	if err != nil || !found {
		return err
	}
	e.Extra = extra.Clone()
	if err := c.store.Put(key, e); err != nil {
		return fmt.Errorf("cache: set extra %q: %w", key, err)
	}
	return nil
}

// RemoveItem evicts key together with its auxiliary data.
func (c *Cache) RemoveItem(key string) error {
	if err := c.store.Delete(key); err != nil {
		return fmt.Errorf("cache: remove %q: %w", key, err)
	}
	c.log.Debug("item removed", zap.String("key", key))
	return nil
}

func (c *Cache) lookup(key string) (Entry, bool, error) {
	e, err := c.store.Get(key)
	if errors.Is(err, ErrNotFound) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache: lookup %q: %w", key, err)
	}
	return e, true, nil
}
