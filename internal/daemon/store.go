package daemon

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/leonardcser/ttl-cache/internal/cache"
	"github.com/leonardcser/ttl-cache/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStore builds the storage backend cfg selects. The returned Closer
// releases it.
func OpenStore(cfg config.Config) (cache.Store, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		s, err := cache.NewMemoryStore(cfg.Capacity)
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser{}, nil
	case config.BackendBolt:
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, nil, err
		}
		s, err := cache.OpenBolt(cfg.DBPath, cache.BoltOptions{Bucket: cfg.Bucket})
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", cfg.DBPath, err)
		}
		return s, s, nil
	case config.BackendRedis:
		s := cache.NewRedisStore(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.RedisPrefix)
		return s, s, nil
	case config.BackendMemcached:
		return cache.NewMemcachedStore(cfg.MemcachedServers...), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
