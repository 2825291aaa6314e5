package source

import (
	"context"
	"time"

	"rizesync/internal/cache"
	"rizesync/internal/core"
	"rizesync/internal/log"
)

// Cached fronts a Source with per-day LRU caches so that a day needed by
// both the daily and the weekly pass is only fetched once. Failed fetches
// are never cached.
type Cached struct {
	next     Source
	summary  *cache.LRUCache[core.MetricBucket]
	projects *cache.LRUCache[[]core.ProjectEntry]
}

// Ensure interface conformance
var _ Source = (*Cached)(nil)

// NewCached wraps next. size bounds the number of days kept per cache.
func NewCached(next Source, size int, ttl time.Duration) *Cached {
	return &Cached{
		next:     next,
		summary:  cache.NewLRUCache[core.MetricBucket](size, ttl),
		projects: cache.NewLRUCache[[]core.ProjectEntry](size, ttl),
	}
}

// Register adds both caches to s so that expired days are dropped between
// watch cycles.
func (c *Cached) Register(s *cache.Sweeper) {
	s.Register(c.summary)
	s.Register(c.projects)
}

func (c *Cached) FetchSummary(ctx context.Context, day time.Time) (core.MetricBucket, error) {
	key := core.DayKey(day)
	if b, ok := c.summary.Get(key); ok {
		log.FromContext(ctx, log.ComponentCache).DebugContext(ctx, "Summary cache hit", log.FieldDate, key)
		return cloneBucket(b), nil
	}
	b, err := c.next.FetchSummary(ctx, day)
	if err != nil {
		return core.MetricBucket{}, err
	}
	c.summary.Set(key, cloneBucket(b))
	return b, nil
}

func (c *Cached) FetchProjectEntries(ctx context.Context, day time.Time) ([]core.ProjectEntry, error) {
	key := core.DayKey(day)
	if entries, ok := c.projects.Get(key); ok {
		log.FromContext(ctx, log.ComponentCache).DebugContext(ctx, "Project entries cache hit", log.FieldDate, key)
		return append([]core.ProjectEntry(nil), entries...), nil
	}
	entries, err := c.next.FetchProjectEntries(ctx, day)
	if err != nil {
		return nil, err
	}
	c.projects.Set(key, append([]core.ProjectEntry(nil), entries...))
	return entries, nil
}

func cloneBucket(b core.MetricBucket) core.MetricBucket {
	b.Categories = b.Categories.Clone()
	return b
}
