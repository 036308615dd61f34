package xcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lib_store "github.com/eko/gocache/lib/v4/store"
	redis "github.com/redis/go-redis/v9"
)

// RedisClient is the subset of go-redis this store needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Set(ctx context.Context, key string, values any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	FlushAll(ctx context.Context) *redis.StatusCmd
}

const redisType = "redis"

// redisStore adapts go-redis to the gocache store interface with JSON values.
type redisStore[T any] struct {
	client  RedisClient
	options *lib_store.Options
}

func newRedisStore[T any](client RedisClient, options ...lib_store.Option) *redisStore[T] {
	return &redisStore[T]{
		client:  client,
		options: lib_store.ApplyOptions(options...),
	}
}

func (s *redisStore[T]) Get(ctx context.Context, key any) (any, error) {
	var result T

	keyString, ok := key.(string)
	if !ok {
		return result, lib_store.NotFoundWithCause(fmt.Errorf("expected string key, got %T", key))
	}

	object, err := s.client.Get(ctx, keyString).Result()
	if errors.Is(err, redis.Nil) {
		return result, lib_store.NotFoundWithCause(err)
	}

	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(object), &result); err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}

func (s *redisStore[T]) GetWithTTL(ctx context.Context, key any) (any, time.Duration, error) {
	var result T

	keyString, ok := key.(string)
	if !ok {
		return result, 0, lib_store.NotFoundWithCause(fmt.Errorf("expected string key, got %T", key))
	}

	object, err := s.client.Get(ctx, keyString).Result()
	if errors.Is(err, redis.Nil) {
		return result, 0, lib_store.NotFoundWithCause(err)
	}

	if err != nil {
		return result, 0, err
	}

	if err := json.Unmarshal([]byte(object), &result); err != nil {
		var zero T
		return zero, 0, err
	}

	ttl, err := s.client.TTL(ctx, keyString).Result()
	if err != nil {
		var zero T
		return zero, 0, err
	}

	return result, ttl, nil
}

func (s *redisStore[T]) Set(ctx context.Context, key any, value any, options ...lib_store.Option) error {
	opts := lib_store.ApplyOptionsWithDefault(s.options, options...)

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	keyString, ok := key.(string)
	if !ok {
		return fmt.Errorf("expected string key, got %T", key)
	}

	return s.client.Set(ctx, keyString, string(raw), opts.Expiration).Err()
}

func (s *redisStore[T]) Delete(ctx context.Context, key any) error {
	keyString, ok := key.(string)
	if !ok {
		return fmt.Errorf("expected string key, got %T", key)
	}

	return s.client.Del(ctx, keyString).Err()
}

func (s *redisStore[T]) GetType() string {
	return redisType
}

func (s *redisStore[T]) Clear(ctx context.Context) error {
	return s.client.FlushAll(ctx).Err()
}

func (s *redisStore[T]) Invalidate(ctx context.Context, options ...lib_store.InvalidateOption) error {
	return s.client.FlushAll(ctx).Err()
}
