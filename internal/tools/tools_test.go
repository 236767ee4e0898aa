package tools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/mo"

	"github.com/leonardcser/ttl-cache/internal/cache"
	"github.com/leonardcser/ttl-cache/internal/daemon"
	"github.com/leonardcser/ttl-cache/internal/ttl"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// localBackend drives an in-process cache instead of the daemon.
type localBackend struct {
	c     *cache.Cache
	touch ttl.TouchFunc
}

func newLocalBackend(t *testing.T, now *time.Time) *localBackend {
	t.Helper()
	store, err := cache.NewMemoryStore(0)
	if err != nil {
		t.Fatalf("NewMemoryStore failed: %v", err)
	}
	clock := ttl.ClockFunc(func() time.Time { return *now })
	c := cache.New(store, cache.WithPlugin(ttl.New(ttl.WithClock(clock))))
	touch, _ := ttl.TouchOf(c)
	return &localBackend{c: c, touch: touch}
}

func (b *localBackend) Get(key string) (*daemon.Item, error) {
	item, err := b.c.GetItem(key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, cache.ErrNotFound
	}
	out := &daemon.Item{Value: item.Value, TTL: mo.None[ttl.Metadata]()}
	if md, ok := item.Extra[ttl.KeyTTLData].(ttl.Metadata); ok {
		out.TTL = mo.Some(md)
	}
	return out, nil
}

func (b *localBackend) Has(key string) (bool, error) { return b.c.HasItem(key) }

func (b *localBackend) Set(key string, value []byte, extra cache.Extra) error {
	return b.c.SetItem(key, value, extra)
}

func (b *localBackend) Touch(key string) (mo.Option[ttl.Metadata], error) { return b.touch(key) }

func (b *localBackend) Delete(key string) error { return b.c.RemoveItem(key) }

func call(t *testing.T, h handlerFunc, args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatal("handler returned no content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Expected text content, got %T", res.Content[0])
	}
	return text.Text, res.IsError
}

func TestCacheTools_RoundTrip(t *testing.T) {
	now := t0
	b := newLocalBackend(t, &now)

	if out, isErr := call(t, CacheSetHandler(b), map[string]any{"key": "k", "value": "hello", "ttl": float64(60)}); isErr {
		t.Fatalf("cache-set failed: %s", out)
	}
	out, isErr := call(t, CacheGetHandler(b), map[string]any{"key": "k"})
	if isErr {
		t.Fatalf("cache-get failed: %s", out)
	}
	if !strings.Contains(out, "hello") || !strings.Contains(out, "TTL: 60s") {
		t.Errorf("Unexpected cache-get output %q", out)
	}

	now = t0.Add(30 * time.Second)
	out, _ = call(t, CacheTouchHandler(b), map[string]any{"key": "k"})
	if !strings.Contains(out, "valid till 2024-03-01T12:01:30Z") {
		t.Errorf("Unexpected cache-touch output %q", out)
	}

	now = t0.Add(91 * time.Second)
	if out, _ := call(t, CacheHasHandler(b), map[string]any{"key": "k"}); out != "false" {
		t.Errorf("Expected expired key, got %q", out)
	}
	if out, _ := call(t, CacheGetHandler(b), map[string]any{"key": "k"}); out != "Not found." {
		t.Errorf("Expected not found, got %q", out)
	}
}

func TestCacheSet_InvalidTTL(t *testing.T) {
	now := t0
	b := newLocalBackend(t, &now)

	out, isErr := call(t, CacheSetHandler(b), map[string]any{"key": "k", "value": "v", "ttl": float64(0)})
	if !isErr || !strings.Contains(out, "ttl must be greater than 0") {
		t.Errorf("Expected validation error, got %q (error=%v)", out, isErr)
	}
	out, isErr = call(t, CacheSetHandler(b), map[string]any{"key": "k", "value": "v", "ttl": "5"})
	if !isErr || !strings.Contains(out, "ttl must be an integer") {
		t.Errorf("Expected validation error, got %q (error=%v)", out, isErr)
	}
	if out, _ := call(t, CacheHasHandler(b), map[string]any{"key": "k"}); out != "false" {
		t.Errorf("Expected nothing stored, got %q", out)
	}
}

func TestCacheTouch_NoTTL(t *testing.T) {
	now := t0
	b := newLocalBackend(t, &now)
	call(t, CacheSetHandler(b), map[string]any{"key": "k", "value": "v"})

	out, isErr := call(t, CacheTouchHandler(b), map[string]any{"key": "k"})
	if isErr || !strings.Contains(out, "nothing to renew") {
		t.Errorf("Unexpected cache-touch output %q", out)
	}

	if out, isErr := call(t, CacheDeleteHandler(b), map[string]any{"key": "k"}); isErr {
		t.Fatalf("cache-delete failed: %s", out)
	}
	if out, _ := call(t, CacheHasHandler(b), map[string]any{"key": "k"}); out != "false" {
		t.Errorf("Expected deleted key, got %q", out)
	}
}

func TestCacheGet_MissingKey(t *testing.T) {
	now := t0
	b := newLocalBackend(t, &now)
	if _, isErr := call(t, CacheGetHandler(b), map[string]any{}); !isErr {
		t.Error("Expected an error without a key")
	}
}
