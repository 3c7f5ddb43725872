package principal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedResolver decorates a Resolver with a short-TTL Redis cache.
// The cache is advisory only: a role change becomes visible after at
// most one TTL, so the TTL must stay short. Not-found results are not
// cached; a deleted account must reject on the next request.
type CachedResolver struct {
	inner  Resolver
	client *redis.Client
	ttl    time.Duration
}

// NewCachedResolver wraps inner with a Redis cache using the given TTL.
func NewCachedResolver(inner Resolver, client *redis.Client, ttl time.Duration) *CachedResolver {
	return &CachedResolver{inner: inner, client: client, ttl: ttl}
}

// Resolve serves from cache when possible, falling through to the
// inner resolver. Cache failures degrade to a plain lookup.
func (c *CachedResolver) Resolve(ctx context.Context, userID int64) (*Principal, error) {
	key := c.key(userID)
	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var p Principal
		if err := json.Unmarshal(data, &p); err == nil {
			return &p, nil
		}
		// Corrupt entry: drop it and re-resolve.
		_ = c.client.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	p, err := c.inner.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(p); err == nil {
		_ = c.client.Set(ctx, key, data, c.ttl).Err()
	}
	return p, nil
}

// Invalidate drops the cached principal, e.g. after a role change.
func (c *CachedResolver) Invalidate(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, c.key(userID)).Err()
}

func (c *CachedResolver) key(userID int64) string {
	return fmt.Sprintf("principal:%d", userID)
}

var _ Resolver = (*CachedResolver)(nil)
