package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends understood by the cache daemon.
const (
	BackendMemory    = "memory"
	BackendBolt      = "bolt"
	BackendRedis     = "redis"
	BackendMemcached = "memcached"
)

type Config struct {
	// SocketPath is the unix socket the daemon listens on.
	SocketPath string `env:"TTLCACHE_SOCK"`
	// Backend selects the store behind the host cache.
	Backend string `env:"TTLCACHE_BACKEND" envDefault:"bolt"`
	// DBPath is the Bolt database file.
	DBPath string `env:"TTLCACHE_DB"`
	Bucket string `env:"TTLCACHE_BUCKET" envDefault:"cache"`
	// Capacity bounds the memory backend.
	Capacity int `env:"TTLCACHE_CAPACITY" envDefault:"10000"`

	RedisAddr     string `env:"TTLCACHE_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"TTLCACHE_REDIS_PASSWORD"`
	RedisDB       int    `env:"TTLCACHE_REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"TTLCACHE_REDIS_PREFIX" envDefault:"ttl-cache:"`

	MemcachedServers []string `env:"TTLCACHE_MEMCACHED_SERVERS" envSeparator:"," envDefault:"localhost:11211"`

	// DialTimeout bounds client connections to the daemon.
	DialTimeout time.Duration `env:"TTLCACHE_DIAL_TIMEOUT" envDefault:"500ms"`

	LogPath  string `env:"TTLCACHE_LOG"`
	LogLevel string `env:"TTLCACHE_LOG_LEVEL" envDefault:"info"`
}

// Load reads the configuration from the environment and fills in
// per-user defaults for paths.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch cfg.Backend {
	case BackendMemory, BackendBolt, BackendRedis, BackendMemcached:
	default:
		return Config{}, fmt.Errorf("unknown TTLCACHE_BACKEND %q", cfg.Backend)
	}
	if cfg.SocketPath == "" {
		cfg.SocketPath = DefaultSocketPath()
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cacheDir(), "cache.bbolt")
	}
	return cfg, nil
}

// DefaultSocketPath is where the daemon listens when TTLCACHE_SOCK is unset.
func DefaultSocketPath() string {
	if s := os.Getenv("TTLCACHE_SOCK"); s != "" {
		return s
	}
	return filepath.Join(cacheDir(), "cache.sock")
}

func cacheDir() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".cache", "ttl-cache")
}
