// Package cache stores rendered projections keyed by what produced them.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent or expired
var ErrMiss = errors.New("cache miss")

// Cache is a byte cache for rendered output
type Cache interface {
	// Get returns the value stored for key or ErrMiss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero ttl uses the configured default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key
	Delete(ctx context.Context, key string) error

	// Clear removes every key under the cache prefix
	Clear(ctx context.Context) error

	Close() error
}

// Config holds settings shared by all backends
type Config struct {
	DefaultTTL time.Duration
	Prefix     string
}

// DefaultConfig returns the default cache settings
func DefaultConfig() Config {
	return Config{
		DefaultTTL: time.Minute,
		Prefix:     "projector:",
	}
}

// IsMiss reports whether err is a cache miss
func IsMiss(err error) bool {
	return errors.Is(err, ErrMiss)
}

// Nop is a Cache that stores nothing
type Nop struct{}

func (Nop) Get(ctx context.Context, key string) ([]byte, error) { return nil, ErrMiss }

func (Nop) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error { return nil }

func (Nop) Delete(ctx context.Context, key string) error { return nil }

func (Nop) Clear(ctx context.Context) error { return nil }

func (Nop) Close() error { return nil }
