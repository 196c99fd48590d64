package adapter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient defines the interface for Redis operations to enable mocking.
// The surface is deliberately small: the node only uses Redis for keyed
// TTL locks.
//
//go:generate mockgen -source=redis.go -destination=../mocks/redis.go -package=mocks -mock_names=RedisClient=MockRedisClient
type RedisClient interface {
	// Ping checks if Redis is reachable
	Ping(ctx context.Context) error

	// SetNX sets key to value with a TTL if the key does not exist.
	// Returns true when the key was set.
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)

	// Get returns the value of key. Missing keys yield redis.Nil.
	Get(ctx context.Context, key string) (string, error)

	// Exists reports how many of the given keys exist
	Exists(ctx context.Context, keys ...string) (int64, error)

	// Eval runs a Lua script with the given keys and arguments
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)

	// Close closes the Redis connection
	Close() error
}

// RealRedisClient wraps the actual Redis client
type RealRedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis client
func NewRedisClient(addr, password string, db int) RedisClient {
	return &RealRedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Ping checks if Redis is reachable
func (r *RealRedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// SetNX sets key to value with a TTL if the key does not exist
func (r *RealRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, value, expiration).Result()
}

// Get returns the value of key
func (r *RealRedisClient) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

// Exists reports how many of the given keys exist
func (r *RealRedisClient) Exists(ctx context.Context, keys ...string) (int64, error) {
	return r.client.Exists(ctx, keys...).Result()
}

// Eval runs a Lua script with the given keys and arguments
func (r *RealRedisClient) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	return r.client.Eval(ctx, script, keys, args...).Result()
}

// Close closes the Redis connection
func (r *RealRedisClient) Close() error {
	return r.client.Close()
}
