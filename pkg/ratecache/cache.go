// Package ratecache holds the single process-wide mutable value in the
// system: the latest AggregatedResult. Reads are lock-free loads of an
// atomic pointer; readers share the stored value rather than a copy.
package ratecache

import (
	"context"
	"sync/atomic"
	"time"

	"hldesk-api/pkg/aggregator"
)

// TTL is the bounded-staleness window: get() recomputes via the aggregator
// once the cached value is older than this.
const TTL = 30 * time.Second

// Fetcher recomputes an AggregatedResult on demand. *aggregator.Aggregator
// satisfies this.
type Fetcher interface {
	Aggregate(ctx context.Context) (*aggregator.AggregatedResult, error)
}

// Cache holds the most recent AggregatedResult in an atomic pointer and its
// wall-clock insertion time in a separate atomic integer, so update is two
// atomic stores and get is lock-free.
type Cache struct {
	value   atomic.Pointer[aggregator.AggregatedResult]
	fetched atomic.Int64 // unix millis of last insertion
	fetcher Fetcher
}

// New constructs an empty cache backed by fetcher for recompute-on-stale.
func New(fetcher Fetcher) *Cache {
	return &Cache{fetcher: fetcher}
}

// Update unconditionally writes result, advancing the insertion clock. Used
// by the poll loop after every aggregation pass.
func (c *Cache) Update(result *aggregator.AggregatedResult) {
	c.value.Store(result)
	c.fetched.Store(time.Now().UnixMilli())
}

// Get returns the cached value if its age is within TTL; otherwise it
// recomputes via the fetcher and stores the fresh result before returning
// it. Once Get returns a result, callers within the TTL observe identical
// data (no recompute is triggered and Update is the only writer in between).
func (c *Cache) Get(ctx context.Context) (*aggregator.AggregatedResult, error) {
	if c.AgeMs() < TTL.Milliseconds() {
		if v := c.value.Load(); v != nil {
			return v, nil
		}
	}
	result, err := c.fetcher.Aggregate(ctx)
	if err != nil {
		return nil, err
	}
	c.Update(result)
	return result, nil
}

// AgeMs returns the age of the cached value in milliseconds, or one
// millisecond past TTL if nothing has ever been stored.
func (c *Cache) AgeMs() int64 {
	last := c.fetched.Load()
	if last == 0 {
		return TTL.Milliseconds() + 1
	}
	return time.Now().UnixMilli() - last
}

// LastFetchMs returns the unix-millis timestamp of the last Update, or 0 if
// never populated.
func (c *Cache) LastFetchMs() int64 {
	return c.fetched.Load()
}

// AssetCount returns the number of spreads in the current cached value.
func (c *Cache) AssetCount() int {
	v := c.value.Load()
	if v == nil {
		return 0
	}
	return len(v.Spreads)
}

// Snapshot returns the currently cached value without triggering recompute,
// or nil if nothing has been cached yet. Engines call this to observe the
// cache state for the current cycle, not a racing concurrent update.
func (c *Cache) Snapshot() *aggregator.AggregatedResult {
	return c.value.Load()
}
