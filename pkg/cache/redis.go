package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Service on Redis. Every key is namespaced by
// prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
}

type RedisOption func(*redisSettings)

type redisSettings struct {
	opts   redis.Options
	prefix string
}

func WithRedisAddr(host string, port int) RedisOption {
	return func(s *redisSettings) { s.opts.Addr = net.JoinHostPort(host, strconv.Itoa(port)) }
}

func WithRedisAuth(password string, db int) RedisOption {
	return func(s *redisSettings) {
		s.opts.Password = password
		s.opts.DB = db
	}
}

func WithRedisPool(size, minIdle int) RedisOption {
	return func(s *redisSettings) {
		s.opts.PoolSize = size
		s.opts.MinIdleConns = minIdle
	}
}

// WithRedisPrefix sets the key namespace; empty disables it.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *redisSettings) { s.prefix = prefix }
}

// NewRedisCache connects and pings; an unreachable server fails here.
func NewRedisCache(opts ...RedisOption) (*RedisCache, error) {
	s := redisSettings{
		opts: redis.Options{
			Addr:         "localhost:6379",
			PoolSize:     10,
			PoolTimeout:  30 * time.Second,
			MinIdleConns: 2,
		},
		prefix: "coeff",
	}
	for _, opt := range opts {
		opt(&s)
	}

	client := redis.NewClient(&s.opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", s.opts.Addr, err)
	}

	return NewRedisCacheFromClient(client, s.prefix), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// Client returns underlying redis client.
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	return c.client.Set(ctx, c.wrapKey(key), value, expiration).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.wrapKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return data, nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Unlink(ctx, c.wrapKeys(keys...)...).Err()
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, c.wrapKey(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *RedisCache) wrapKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return Key(c.prefix, key)
}

func (c *RedisCache) wrapKeys(keys ...string) []string {
	wrapped := make([]string, len(keys))
	for i, key := range keys {
		wrapped[i] = c.wrapKey(key)
	}
	return wrapped
}

var _ Service = (*RedisCache)(nil)
