package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/xy-planning-network/switchback"
)

// KeyPrefix namespaces every key a Redis stores.
const KeyPrefix = "switchback:snapshot:"

// A Redis connects to a Redis backend for the purposes of sharing snapshots
// between processes.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis over client.
// Snapshots expire after ttl; a ttl of zero keeps them until overwritten.
func NewRedis(client *redis.Client, ttl time.Duration) Redis {
	return Redis{client: client, ttl: ttl}
}

// NewRedisFromURL constructs a Redis connecting to the backend at url,
// e.g. redis://:password@localhost:6379/0.
func NewRedisFromURL(url string, ttl time.Duration) (Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return Redis{}, fmt.Errorf("%w: %s", switchback.ErrBadConfig, err)
	}

	return NewRedis(redis.NewClient(opts), ttl), nil
}

// Key is the Redis key snapshots stored under key are saved at.
func (r Redis) Key(key string) string { return KeyPrefix + key }

// Get retrieves the bytes paired to key from the connected Redis backend.
func (r Redis) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, switchback.ErrMissingData
	}

	if r.client == nil {
		return nil, fmt.Errorf("%w: no redis client", switchback.ErrBadConfig)
	}

	b, err := r.client.Get(ctx, r.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", switchback.ErrNotExist, r.Key(key))
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s", switchback.ErrUnexpected, err)
	}

	return b, nil
}

// Set saves b by pairing it to key in the Redis backend.
func (r Redis) Set(ctx context.Context, key string, b []byte) error {
	if key == "" {
		return switchback.ErrMissingData
	}

	if r.client == nil {
		return fmt.Errorf("%w: no redis client", switchback.ErrBadConfig)
	}

	if err := r.client.Set(ctx, r.Key(key), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %s", switchback.ErrUnexpected, err)
	}

	return nil
}

// Close closes the connection to the Redis backend.
func (r Redis) Close() error {
	if r.client == nil {
		return nil
	}

	return r.client.Close()
}
