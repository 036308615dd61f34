// Package xcache provides typed caches on top of eko/gocache.
// Backends: in-process memory (patrickmn/go-cache) or redis.
package xcache

import (
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/store"

	cachelib "github.com/eko/gocache/lib/v4/cache"
	gocache_store "github.com/eko/gocache/store/go_cache/v4"
	gocache "github.com/patrickmn/go-cache"
	redis "github.com/redis/go-redis/v9"
)

// Cache is an alias to the gocache CacheInterface for convenience.
// Common methods:
//   - Get(ctx, key) (T, error)
//   - Set(ctx, key, value, options ...store.Option) error
//   - Delete(ctx, key) error
//   - Clear(ctx) error
type Cache[T any] = cachelib.CacheInterface[T]

type SetterCache[T any] = cachelib.SetterCacheInterface[T]

// Option is re-exported so callers don't import the store package directly.
type Option = store.Option

// WithExpiration sets a per-entry expiration.
func WithExpiration(d time.Duration) Option { return store.WithExpiration(d) }

// NewMemory creates a pure in-memory cache using patrickmn/go-cache as the backend.
// Pass an existing *gocache.Cache so you control default expiration & cleanup interval.
func NewMemory[T any](client *gocache.Cache, options ...Option) SetterCache[T] {
	st := gocache_store.NewGoCache(client, options...)
	return cachelib.New[T](st)
}

// NewMemoryWithOptions builds the go-cache client for you using the provided
// default expiration and cleanup interval.
func NewMemoryWithOptions[T any](defaultExpiration, cleanupInterval time.Duration, options ...Option) SetterCache[T] {
	client := gocache.New(defaultExpiration, cleanupInterval)
	return NewMemory[T](client, options...)
}

// NewRedis creates a redis-backed cache; values are JSON encoded.
func NewRedis[T any](client RedisClient, options ...Option) SetterCache[T] {
	return cachelib.New[T](newRedisStore[T](client, options...))
}

// NewFromConfig builds a typed cache from the given Config.
// If mode is not set or invalid, returns a noop cache that does nothing.
func NewFromConfig[T any](cfg Config) Cache[T] {
	switch cfg.Mode {
	case ModeMemory:
		memExpiration := defaultIfZero(cfg.Memory.Expiration, 5*time.Minute)
		memCleanup := defaultIfZero(cfg.Memory.CleanupInterval, 10*time.Minute)

		return NewMemoryWithOptions[T](memExpiration, memCleanup, WithExpiration(memExpiration))
	case ModeRedis:
		if cfg.Redis.Addr == "" {
			panic(fmt.Errorf("xcache: redis mode requires an addr"))
		}

		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		redisExpiration := defaultIfZero(cfg.Redis.Expiration, 30*time.Minute)

		return NewRedis[T](client, WithExpiration(redisExpiration))
	default:
		return NewNoop[T]()
	}
}

func defaultIfZero(d, fallback time.Duration) time.Duration {
	if d == 0 {
		return fallback
	}

	return d
}
