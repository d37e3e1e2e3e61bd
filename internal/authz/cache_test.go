package authz

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/fundraiser-tracker/internal/domain"
	"github.com/ignite/fundraiser-tracker/internal/storage"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCache(client, 30*time.Second), mr
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	_, ok := cache.Get(ctx, "p1", "acct-1")
	assert.False(t, ok)

	cache.Set(ctx, "p1", "acct-1", grant{owner: true})
	g, ok := cache.Get(ctx, "p1", "acct-1")
	require.True(t, ok)
	assert.True(t, g.owner)

	cache.Set(ctx, "p1", "acct-2", grant{permissions: domain.PermissionSet{domain.PermissionRead}})
	g, ok = cache.Get(ctx, "p1", "acct-2")
	require.True(t, ok)
	assert.Equal(t, Allow, g.decide(domain.PermissionRead))
	assert.Equal(t, Deny, g.decide(domain.PermissionWrite))

	cache.Set(ctx, "p1", "acct-3", grant{missing: true})
	g, ok = cache.Get(ctx, "p1", "acct-3")
	require.True(t, ok)
	assert.Equal(t, Missing, g.decide(domain.PermissionRead))

	// A cached "no grant at all" is distinct from a miss
	cache.Set(ctx, "p1", "acct-4", grant{})
	g, ok = cache.Get(ctx, "p1", "acct-4")
	require.True(t, ok)
	assert.Equal(t, Deny, g.decide(domain.PermissionRead))
}

func TestCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)

	cache.Set(ctx, "p1", "acct-1", grant{owner: true})
	cache.Invalidate(ctx, "p1", "acct-1")

	_, ok := cache.Get(ctx, "p1", "acct-1")
	assert.False(t, ok)
}

func TestCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, 10*time.Second)

	cache.Set(ctx, "p1", "acct-1", grant{owner: true})
	mr.FastForward(11 * time.Second)

	_, ok := cache.Get(ctx, "p1", "acct-1")
	assert.False(t, ok)
}

func TestCacheRedisDownIsMiss(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	mr.Close()

	_, ok := cache.Get(ctx, "p1", "acct-1")
	assert.False(t, ok)
	// Set and Invalidate must not panic either
	cache.Set(ctx, "p1", "acct-1", grant{owner: true})
	cache.Invalidate(ctx, "p1", "acct-1")
}

func TestEvaluatorUsesCache(t *testing.T) {
	ctx := context.Background()
	cache, _ := newTestCache(t)
	store := storage.NewMemoryStore()
	require.NoError(t, store.PutProfile(ctx, &domain.Profile{ID: "p1", OwnerAccountID: "acct-owner"}))
	eval := NewEvaluator(store, store, cache)

	decision, err := eval.Evaluate(ctx, "acct-owner", "p1", domain.PermissionWrite)
	require.NoError(t, err)
	require.Equal(t, Allow, decision)

	// The verdict now comes from the cache even after the profile vanishes
	require.NoError(t, store.DeleteProfile(ctx, "p1"))
	decision, err = eval.Evaluate(ctx, "acct-owner", "p1", domain.PermissionWrite)
	require.NoError(t, err)
	assert.Equal(t, Allow, decision)

	// Until the entry is invalidated
	cache.Invalidate(ctx, "p1", "acct-owner")
	decision, err = eval.Evaluate(ctx, "acct-owner", "p1", domain.PermissionWrite)
	require.NoError(t, err)
	assert.Equal(t, Missing, decision)
}

func TestGrantEncoding(t *testing.T) {
	grants := []grant{
		{missing: true},
		{owner: true},
		{},
		{permissions: domain.PermissionSet{domain.PermissionRead}},
		{permissions: domain.PermissionSet{domain.PermissionRead, domain.PermissionWrite}},
	}
	for _, g := range grants {
		decoded := decodeGrant(encodeGrant(g))
		assert.Equal(t, g.decide(domain.PermissionRead), decoded.decide(domain.PermissionRead))
		assert.Equal(t, g.decide(domain.PermissionWrite), decoded.decide(domain.PermissionWrite))
	}
}
