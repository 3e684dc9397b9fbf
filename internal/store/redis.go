package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each document under "<prefix><name>".
type RedisStore struct {
	codec
}

type redisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to redisURL (redis:// or rediss://).
func NewRedisStore(redisURL, prefix string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStoreFromClient(redis.NewClient(opt), prefix), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{codec{backend: &redisBackend{client: client, prefix: prefix}}}
}

func (r *redisBackend) get(ctx context.Context, name string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *redisBackend) put(ctx context.Context, name string, data []byte) error {
	return r.client.Set(ctx, r.prefix+name, data, 0).Err()
}

func (r *redisBackend) ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisBackend) close() error {
	return r.client.Close()
}
