package authz

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/fundraiser-tracker/internal/domain"
	"github.com/ignite/fundraiser-tracker/internal/pkg/logger"
)

// Cache is a redis-backed, cache-aside store of resolved grants keyed by
// (profile, account). Share creation and revocation must call Invalidate
// before returning so a revoked grant is never served stale from the same
// process; the short TTL bounds staleness across processes.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

const (
	cacheKeyPrefix = "authz:"
	valueMissing   = "missing"
	valueOwner     = "owner"
	valueNone      = "none"
)

// NewCache wraps a redis client. ttl ≤ 0 defaults to 30 seconds.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(profileID, accountID string) string {
	return cacheKeyPrefix + profileID + ":" + accountID
}

// Get returns the cached grant and whether one was present. Redis errors are
// treated as a miss: the evaluator falls through to the repositories.
func (c *Cache) Get(ctx context.Context, profileID, accountID string) (grant, bool) {
	val, err := c.client.Get(ctx, cacheKey(profileID, accountID)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("authz cache read failed", "error", err.Error())
		}
		return grant{}, false
	}
	return decodeGrant(val), true
}

// Set stores a resolved grant with the cache TTL. Failures are logged and
// ignored; the cache is advisory.
func (c *Cache) Set(ctx context.Context, profileID, accountID string, g grant) {
	if err := c.client.Set(ctx, cacheKey(profileID, accountID), encodeGrant(g), c.ttl).Err(); err != nil {
		logger.Warn("authz cache write failed", "error", err.Error())
	}
}

// Invalidate drops the cached grant for (profile, account). Called by share
// create/replace and revoke before they return.
func (c *Cache) Invalidate(ctx context.Context, profileID, accountID string) {
	if err := c.client.Del(ctx, cacheKey(profileID, accountID)).Err(); err != nil {
		logger.Warn("authz cache invalidation failed", "error", err.Error())
	}
}

func encodeGrant(g grant) string {
	switch {
	case g.missing:
		return valueMissing
	case g.owner:
		return valueOwner
	case len(g.permissions) == 0:
		return valueNone
	}
	parts := make([]string, 0, len(g.permissions))
	for _, p := range g.permissions {
		parts = append(parts, string(p))
	}
	return strings.Join(parts, ",")
}

func decodeGrant(val string) grant {
	switch val {
	case valueMissing:
		return grant{missing: true}
	case valueOwner:
		return grant{owner: true}
	case valueNone, "":
		return grant{}
	}
	var perms domain.PermissionSet
	for _, p := range strings.Split(val, ",") {
		perms = append(perms, domain.Permission(p))
	}
	return grant{permissions: perms}
}
