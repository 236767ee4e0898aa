package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps JSON-encoded entries in Redis under a key prefix.
type RedisStore struct {
	Client  *redis.Client
	Prefix  string
	Timeout time.Duration
}

func NewRedisStore(opt *redis.Options, prefix string) *RedisStore {
	return &RedisStore{Client: redis.NewClient(opt), Prefix: prefix, Timeout: 2 * time.Second}
}

func (s *RedisStore) Get(key string) (Entry, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	b, err := s.Client.Get(ctx, s.Prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	e, err := decodeEntry(b)
	if err != nil {
		return Entry{}, fmt.Errorf("decode %q: %w", key, err)
	}
	return e, nil
}

func (s *RedisStore) Put(key string, e Entry) error {
	b, err := encodeEntry(e)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return s.Client.Set(ctx, s.Prefix+key, b, 0).Err()
}

func (s *RedisStore) Delete(key string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.Client.Del(ctx, s.Prefix+key).Err()
}

func (s *RedisStore) Close() error { return s.Client.Close() }

func (s *RedisStore) ctx() (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), s.Timeout)
}
