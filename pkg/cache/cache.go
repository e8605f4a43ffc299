package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Key joins parts with ':' the way every backend namespaces keys.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Service stores opaque byte values with a TTL.
type Service interface {
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// Nop is a Service that never stores anything.
type Nop struct{}

func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Get(context.Context, string) ([]byte, error)              { return nil, ErrCacheMiss }
func (Nop) Delete(context.Context, ...string) error                  { return nil }
func (Nop) Exists(context.Context, string) (bool, error)             { return false, nil }
func (Nop) Close() error                                             { return nil }
