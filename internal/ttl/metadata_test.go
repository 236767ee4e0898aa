package ttl

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/leonardcser/ttl-cache/internal/cache"
)

func TestNewMetadata(t *testing.T) {
	md, err := NewMetadata(60, t0)
	if err != nil {
		t.Fatalf("NewMetadata failed: %v", err)
	}
	if md.Duration() != time.Minute {
		t.Errorf("Expected 1m, got %v", md.Duration())
	}
	if md.ExpiredAt(t0.Add(time.Minute)) {
		t.Error("The deadline itself must still be valid")
	}
	if !md.ExpiredAt(t0.Add(time.Minute + time.Nanosecond)) {
		t.Error("Expected expiry right after the deadline")
	}

	if _, err := NewMetadata(0, t0); !errors.Is(err, ErrTTLNotPositive) {
		t.Errorf("Expected ErrTTLNotPositive, got %v", err)
	}
}

func TestMetadataJSON(t *testing.T) {
	md, _ := NewMetadata(60, t0)
	b, err := json.Marshal(md)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"ttl":60,"created":"2024-03-01T12:00:00Z","validTill":"2024-03-01T12:01:00Z"}`
	if string(b) != want {
		t.Errorf("Expected %s, got %s", want, b)
	}

	got, err := ParseMetadata(b)
	if err != nil {
		t.Fatalf("ParseMetadata failed: %v", err)
	}
	if got.TTL() != 60 || !got.Created().Equal(t0) || !got.ValidTill().Equal(md.ValidTill()) {
		t.Errorf("Round trip changed metadata: %v", got)
	}

	for _, bad := range []string{`{"ttl":0,"validTill":"2024-03-01T12:01:00Z"}`, `{"ttl":5}`, `[]`} {
		if _, err := ParseMetadata([]byte(bad)); err == nil {
			t.Errorf("Expected %s to be rejected", bad)
		}
	}
}

func TestMetadataFromDecodedMap(t *testing.T) {
	var decoded map[string]any
	if err := json.Unmarshal([]byte(`{"ttl":5,"created":"2024-03-01T12:00:00Z","validTill":"2024-03-01T12:00:30Z"}`), &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	md, err := metadataFrom(decoded)
	if err != nil {
		t.Fatalf("metadataFrom failed: %v", err)
	}
	// validTill is taken as stored, not recomputed from created.
	if !md.ValidTill().Equal(t0.Add(30 * time.Second)) {
		t.Errorf("Unexpected validTill %v", md.ValidTill())
	}
}

func TestTTLDataSurvivesBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.bbolt")
	clock := &fakeClock{now: t0}

	store, err := cache.OpenBolt(path, cache.BoltOptions{})
	if err != nil {
		t.Fatalf("OpenBolt failed: %v", err)
	}
	c := cache.New(store, cache.WithPlugin(New(WithClock(clock))))
	if err := c.SetItem("k", []byte("v"), cache.Extra{KeyTTL: 60, "owner": "me"}); err != nil {
		t.Fatalf("SetItem failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	store, err = cache.OpenBolt(path, cache.BoltOptions{})
	if err != nil {
		t.Fatalf("OpenBolt failed: %v", err)
	}
	defer store.Close()
	c = cache.New(store, cache.WithPlugin(New(WithClock(clock))))

	clock.Advance(30 * time.Second)
	res, err := mustTouch(t, c)("k")
	if err != nil {
		t.Fatalf("touch failed: %v", err)
	}
	md, ok := res.Get()
	if !ok {
		t.Fatal("Expected persisted ttlData to be found")
	}
	if !md.Created().Equal(t0) || !md.ValidTill().Equal(t0.Add(90*time.Second)) {
		t.Errorf("Unexpected renewed metadata: %v", md)
	}
	extra, _ := c.GetExtra("k")
	if extra["owner"] != "me" {
		t.Errorf("Expected owner to survive, got %v", extra)
	}

	clock.Advance(61 * time.Second)
	if ok, _ := c.HasItem("k"); ok {
		t.Error("Expected expiry after the renewed deadline")
	}
	if _, err := store.Get("k"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("Expected the entry to be removed from disk, got %v", err)
	}
}
