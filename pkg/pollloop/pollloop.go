// Package pollloop drives the fixed-interval poll cycle: aggregate, update
// the rate cache, then fire the snapshot writer and paper-trading engine
// without awaiting either, coalescing overlapping ticks instead of queuing
// them.
package pollloop

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"hldesk-api/pkg/aggregator"
	"hldesk-api/pkg/venue"
)

// Aggregator is the dependency the loop ticks against.
type Aggregator interface {
	Aggregate(ctx context.Context) (*aggregator.AggregatedResult, error)
}

// Cache receives the fresh aggregate on every successful tick.
type Cache interface {
	Update(result *aggregator.AggregatedResult)
}

// SnapshotWriter persists the raw rate observations, fire-and-forget.
type SnapshotWriter interface {
	Save(ctx context.Context, rates []venue.FundingRate)
}

// PaperEngine runs one trading cycle for every active portfolio.
type PaperEngine interface {
	RunCycle(ctx context.Context, result *aggregator.AggregatedResult)
}

// Loop ticks a fixed interval: each tick aggregates and updates the cache
// synchronously (cache freshness must never stall behind a slow prior
// tick's downstream work), then spawns the snapshot writer and paper engine
// without awaiting them. A tick whose previous dispatch is still running
// skips re-dispatching that work this tick, logging instead of queuing; the
// loop itself never blocks on either, and continues past any downstream
// error.
type Loop struct {
	aggregator Aggregator
	cache      Cache
	writer     SnapshotWriter
	paper      PaperEngine
	interval   time.Duration
	running    atomic.Bool
}

func New(agg Aggregator, cache Cache, writer SnapshotWriter, paperEngine PaperEngine, interval time.Duration) *Loop {
	return &Loop{aggregator: agg, cache: cache, writer: writer, paper: paperEngine, interval: interval}
}

// Run performs one aggregation immediately, then ticks at the configured
// interval until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	l.tick(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logx.Infof("pollloop: stopping")
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	result, err := l.aggregator.Aggregate(ctx)
	if err != nil {
		logx.Errorf("pollloop: aggregate failed: %v", err)
		return
	}
	l.cache.Update(result)

	if !l.running.CompareAndSwap(false, true) {
		logx.Slowf("pollloop: previous tick's downstream tasks still running, skipping dispatch this tick")
		return
	}

	go func() {
		defer l.running.Store(false)
		defer func() {
			if r := recover(); r != nil {
				logx.Errorf("pollloop: downstream dispatch panicked: %v", r)
			}
		}()
		l.writer.Save(ctx, result.AllRates)
		l.paper.RunCycle(ctx, result)
	}()
}
