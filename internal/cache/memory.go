package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryProvider is a bounded in-process cache backing single-node runs. TTL
// is fixed at construction time; per-call TTLs are accepted for interface
// compatibility and ignored.
type MemoryProvider struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, []byte]
}

// NewMemoryProvider builds an LRU window of the given size and TTL.
func NewMemoryProvider(size int, ttl time.Duration) *MemoryProvider {
	if size <= 0 {
		size = 4096
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemoryProvider{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (m *MemoryProvider) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.lru.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m *MemoryProvider) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Add(key, value)
	return nil
}

// SetNX stores only when the key is absent; the mutex makes check-then-set
// atomic across callers.
func (m *MemoryProvider) SetNX(_ context.Context, key string, value []byte, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lru.Get(key); ok {
		return false, nil
	}
	m.lru.Add(key, value)
	return true, nil
}

func (m *MemoryProvider) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lru.Remove(key)
	return nil
}

func (m *MemoryProvider) Close() error { return nil }
