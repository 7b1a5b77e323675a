package membership

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/crewdesk/crewdesk/pkg/observability"
)

// Cache holds per-user snapshots of approved memberships so hot paths such
// as actor-context construction avoid a store read per request. Entries are
// invalidated on every lifecycle mutation and expire on their own after the
// TTL, bounding staleness when invalidation is missed.
type Cache struct {
	lru     *expirable.LRU[int64, []*Membership]
	metrics *observability.Metrics
}

// NewCache creates a membership snapshot cache. metrics may be nil.
func NewCache(size int, ttl time.Duration, metrics *observability.Metrics) *Cache {
	return &Cache{
		lru:     expirable.NewLRU[int64, []*Membership](size, nil, ttl),
		metrics: metrics,
	}
}

// Get returns the cached snapshot for the user, if present.
func (c *Cache) Get(userID int64) ([]*Membership, bool) {
	memberships, ok := c.lru.Get(userID)
	if c.metrics != nil {
		if ok {
			c.metrics.MembershipCacheHitsTotal.Inc()
		} else {
			c.metrics.MembershipCacheMissesTotal.Inc()
		}
	}
	return memberships, ok
}

// Put stores a snapshot for the user.
func (c *Cache) Put(userID int64, memberships []*Membership) {
	c.lru.Add(userID, memberships)
}

// Invalidate drops the user's snapshot.
func (c *Cache) Invalidate(userID int64) {
	c.lru.Remove(userID)
}

// ApprovedMemberships returns the user's approved memberships, serving from
// the cache when possible.
func (l *Lifecycle) ApprovedMemberships(ctx context.Context, userID int64) ([]*Membership, error) {
	if l.cache != nil {
		if memberships, ok := l.cache.Get(userID); ok {
			return memberships, nil
		}
	}
	memberships, err := l.store.ListApproved(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}
	if l.cache != nil {
		l.cache.Put(userID, memberships)
	}
	return memberships, nil
}
