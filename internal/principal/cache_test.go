package principal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-works/atelier/internal/authz"
	"github.com/atelier-works/atelier/internal/principal"
)

type countingResolver struct {
	calls int
	p     *principal.Principal
	err   error
}

func (r *countingResolver) Resolve(ctx context.Context, userID int64) (*principal.Principal, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.p.Clone(), nil
}

func newCacheUnderTest(t *testing.T, inner principal.Resolver, ttl time.Duration) *principal.CachedResolver {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return principal.NewCachedResolver(inner, client, ttl)
}

func TestCachedResolveHitsInnerOnce(t *testing.T) {
	inner := &countingResolver{p: &principal.Principal{
		ID:    5,
		Email: "tech@atelier.local",
		Role:  authz.RoleTechnician,
	}}
	cache := newCacheUnderTest(t, inner, 30*time.Second)

	first, err := cache.Resolve(context.Background(), 5)
	require.NoError(t, err)
	second, err := cache.Resolve(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first, second)
}

func TestCachedResolveDoesNotCacheNotFound(t *testing.T) {
	inner := &countingResolver{err: principal.ErrNotFound}
	cache := newCacheUnderTest(t, inner, 30*time.Second)

	_, err := cache.Resolve(context.Background(), 9)
	assert.ErrorIs(t, err, principal.ErrNotFound)
	_, err = cache.Resolve(context.Background(), 9)
	assert.ErrorIs(t, err, principal.ErrNotFound)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedResolveInvalidate(t *testing.T) {
	inner := &countingResolver{p: &principal.Principal{ID: 5, Role: authz.RoleSecretary}}
	cache := newCacheUnderTest(t, inner, time.Minute)

	_, err := cache.Resolve(context.Background(), 5)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(context.Background(), 5))

	_, err = cache.Resolve(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCloneIsIndependent(t *testing.T) {
	p := &principal.Principal{
		ID:         1,
		Role:       authz.RoleTechnician,
		Attributes: map[string]string{"specialization": "audio"},
	}
	clone := p.Clone()
	clone.Attributes["specialization"] = "video"
	assert.Equal(t, "audio", p.Attributes["specialization"])
}

func TestCachedResolvePropagatesErrors(t *testing.T) {
	boom := errors.New("store down")
	inner := &countingResolver{err: boom}
	cache := newCacheUnderTest(t, inner, time.Minute)

	_, err := cache.Resolve(context.Background(), 2)
	assert.ErrorIs(t, err, boom)
}
