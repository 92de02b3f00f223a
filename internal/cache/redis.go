package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisHeaderPrefix  = "folio:hdr:"
	redisContentPrefix = "folio:body:"

	fieldContentType = "content_type"
	fieldETag        = "etag"
)

// RedisBackend stores the header tier as hashes and the content tier as
// plain strings, both with native key expiry.
type RedisBackend struct {
	client redis.UniversalClient
}

// RedisConfig selects the redis server.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisBackend connects to redis and verifies the connection.
func NewRedisBackend(ctx context.Context, cfg RedisConfig) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisBackendFromClient(client), nil
}

// NewRedisBackendFromClient wraps an existing client.
func NewRedisBackendFromClient(client redis.UniversalClient) *RedisBackend {
	return &RedisBackend{client: client}
}

// GetHeaders implements Backend.
func (r *RedisBackend) GetHeaders(ctx context.Context, key string) (Headers, bool, error) {
	fields, err := r.client.HGetAll(ctx, redisHeaderPrefix+key).Result()
	if err != nil {
		return Headers{}, false, fmt.Errorf("redis hgetall: %w", err)
	}
	etag, ok := fields[fieldETag]
	if !ok {
		return Headers{}, false, nil
	}
	return Headers{ContentType: fields[fieldContentType], ETag: etag}, true, nil
}

// SetHeaders implements Backend.
func (r *RedisBackend) SetHeaders(ctx context.Context, key string, h Headers, ttl time.Duration) error {
	k := redisHeaderPrefix + key
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, fieldContentType, h.ContentType, fieldETag, h.ETag)
		pipe.Expire(ctx, k, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set headers: %w", err)
	}
	return nil
}

// GetContent implements Backend.
func (r *RedisBackend) GetContent(ctx context.Context, key string) ([]byte, bool, error) {
	body, err := r.client.Get(ctx, redisContentPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return body, true, nil
}

// SetContent implements Backend.
func (r *RedisBackend) SetContent(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, redisContentPrefix+key, body, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete implements Backend.
func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisHeaderPrefix+key, redisContentPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close implements Backend.
func (r *RedisBackend) Close() error { return r.client.Close() }
