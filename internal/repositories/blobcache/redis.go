package blobcache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperr "github.com/KirkDiggler/bot-stage/internal/errors"
)

// RedisConfig holds configuration for the Redis cache
type RedisConfig struct {
	Client redis.UniversalClient
	// TTL of zero keeps entries until evicted
	TTL time.Duration
}

type redisRepo struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisRepository creates a Redis-backed cache
func NewRedisRepository(cfg *RedisConfig) (Repository, error) {
	if cfg == nil || cfg.Client == nil {
		return nil, apperr.InvalidArgument("redis client is required")
	}
	return &redisRepo{client: cfg.Client, ttl: cfg.TTL}, nil
}

// NewRedis creates a Redis-backed cache, panicking on a nil client
func NewRedis(client redis.UniversalClient, ttl time.Duration) Repository {
	repo, err := NewRedisRepository(&RedisConfig{Client: client, TTL: ttl})
	if err != nil {
		panic(err)
	}
	return repo
}

func (r *redisRepo) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, apperr.InvalidArgument("key is required")
	}

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFoundf("blob %s not found", key).WithMeta("key", key)
		}
		return nil, apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to get blob from Redis")
	}

	return data, nil
}

func (r *redisRepo) Put(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return apperr.InvalidArgument("key is required")
	}

	if err := r.client.Set(ctx, key, string(data), r.ttl).Err(); err != nil {
		return apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to set blob in Redis")
	}

	return nil
}

func (r *redisRepo) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to delete blob from Redis")
	}
	return nil
}
