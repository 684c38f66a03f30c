// Package cache provides the dedupe fast path in front of the store: a
// Valkey-backed provider for clustered deployments and an in-memory LRU for
// single-node runs. Cache failures are never fatal; the store's unique index
// remains the authority on duplicates.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/tarkyaio/tarka/internal/config"
)

// Provider is the minimal key-value surface the engine needs.
type Provider interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
	Close() error
}

// ErrCacheMiss signals that a key was not found.
var ErrCacheMiss = errors.New("cache miss")

// FromConfig selects the provider implementation: Valkey when enabled and
// reachable, otherwise the in-process LRU window.
func FromConfig(cfg config.CacheConfig) (Provider, error) {
	if !cfg.Enabled {
		return NewMemoryProvider(4096, cfg.DedupeTTL), nil
	}
	return NewValkeyProvider(ValkeyConfig{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxRetries:   cfg.MaxRetries,
		TLS:          cfg.TLS,
	})
}
