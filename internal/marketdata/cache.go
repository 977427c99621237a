package marketdata

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultCacheTTL is how long a cached response stays valid
const DefaultCacheTTL = 6 * time.Hour

// Cache stores raw provider responses by request key
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte) error
}

func hashKey(key string) string {
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// FileCache keeps one JSON file per request key in a directory
type FileCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

type fileCacheEntry struct {
	TS   float64         `json:"ts"`
	Data json.RawMessage `json:"data"`
}

// NewFileCache creates the cache directory if needed
func NewFileCache(dir string, ttl time.Duration) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %s: %w", dir, err)
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &FileCache{dir: dir, ttl: ttl, now: time.Now}, nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, hashKey(key)+".json")
}

// Get returns the cached body, treating stale or unreadable entries as misses
func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool) {
	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	var entry fileCacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false
	}
	written := time.Unix(0, int64(entry.TS*float64(time.Second)))
	if c.now().Sub(written) > c.ttl {
		return nil, false
	}
	return entry.Data, true
}

// Set writes the body with the current timestamp
func (c *FileCache) Set(_ context.Context, key string, data []byte) error {
	raw, err := json.Marshal(fileCacheEntry{TS: float64(c.now().UnixNano()) / float64(time.Second), Data: data})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := os.WriteFile(c.path(key), raw, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// RedisCache keeps responses in Redis with a key expiry
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache wraps a Redis client
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func redisKey(key string) string {
	return "valuator:md:" + hashKey(key)
}

// Get returns the cached body; Redis errors are logged and treated as misses
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.rdb.Get(ctx, redisKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Msg("redis cache read failed")
		return nil, false
	}
	return data, true
}

// Set stores the body with the cache TTL
func (c *RedisCache) Set(ctx context.Context, key string, data []byte) error {
	if err := c.rdb.Set(ctx, redisKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write redis cache: %w", err)
	}
	return nil
}
