package caches

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"panorama-service/internal/services/cache"
)

const redisTilePrefix = "panorama:tile:"

// RedisCache shares tile bytes between service instances.
type RedisCache struct {
	client  *redis.Client
	ttl     time.Duration
	counter cache.Counter
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (rc *RedisCache) Name() string { return "redis" }

func (rc *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := rc.client.Get(ctx, redisTilePrefix+key).Bytes()
	if err == redis.Nil {
		rc.counter.Record(false)
		return nil, false, nil
	}
	if err != nil {
		rc.counter.Record(false)
		return nil, false, errors.Wrap(err, "redis error")
	}
	rc.counter.Record(true)
	return data, true, nil
}

func (rc *RedisCache) Store(ctx context.Context, key string, data []byte) error {
	if err := rc.client.Set(ctx, redisTilePrefix+key, data, rc.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to store in redis")
	}
	return nil
}

func (rc *RedisCache) DeletePrefix(ctx context.Context, prefix string) error {
	keys, err := rc.keys(ctx, redisTilePrefix+prefix+"*")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return rc.client.Del(ctx, keys...).Err()
}

func (rc *RedisCache) keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := rc.client.Scan(ctx, 0, pattern, 256).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func (rc *RedisCache) Stats() cache.LayerStats {
	keys, err := rc.keys(context.Background(), redisTilePrefix+"*")
	objects := len(keys)
	if err != nil {
		objects = -1
	}
	return rc.counter.Stats(rc.Name(), objects)
}
