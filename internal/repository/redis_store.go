package repository

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

const redisDocPrefix = "panorama:doc:"

// RedisStore keeps each collection under one string key.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, collection string) ([]byte, error) {
	data, err := s.client.Get(ctx, redisDocPrefix+collection).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *RedisStore) Put(ctx context.Context, collection string, payload []byte) error {
	if err := validCollection(collection); err != nil {
		return err
	}
	return s.client.Set(ctx, redisDocPrefix+collection, payload, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, collection string) error {
	return s.client.Del(ctx, redisDocPrefix+collection).Err()
}
