package driver

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound key does not exist in the store
var ErrKeyNotFound = errors.New("key not found")

// KeyValueDB define a key-value storage interface
type KeyValueDB interface {
	SetEX(ctx context.Context, key string, value string, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Expire reset the time to live of an existing key, ErrKeyNotFound when it is gone
	Expire(ctx context.Context, key string, expiration time.Duration) error
	Ping() error
}
