package cache

import (
	"context"
	"time"
)

// Deduper is the pre-pipeline duplicate check. It claims a dedupe key with
// SETNX; the first claimer proceeds, later claimers are suppressed. On cache
// failure the alert is processed anyway and the store's unique index settles
// the race.
type Deduper struct {
	provider Provider
	ttl      time.Duration
}

func NewDeduper(provider Provider, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Deduper{provider: provider, ttl: ttl}
}

// Claim returns true when this caller is the first to see the key within the
// TTL window. Errors report the cache problem but never block processing.
func (d *Deduper) Claim(ctx context.Context, key string) (bool, error) {
	if d == nil || d.provider == nil {
		return true, nil
	}
	ok, err := d.provider.SetNX(ctx, "dedupe:"+key, []byte("1"), d.ttl)
	if err != nil {
		return true, err
	}
	return ok, nil
}

// Release drops a claim so a failed investigation can be retried promptly.
func (d *Deduper) Release(ctx context.Context, key string) {
	if d == nil || d.provider == nil {
		return
	}
	_ = d.provider.Del(ctx, "dedupe:"+key)
}
