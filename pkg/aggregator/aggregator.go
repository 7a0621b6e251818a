package aggregator

import (
	"context"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeromicro/go-zero/core/logx"

	"hldesk-api/pkg/venue"
)

// Aggregator fans out to the primary venue and every configured CEX venue
// concurrently, then reconciles the results into spreads keyed by asset.
// Fan-out uses errgroup.WithContext's wait-all semantics, generalizing the
// teacher's goroutine+channel parallel-fetch shape in
// pkg/market/exchanges/hyperliquid/data.go into structured concurrency.
type Aggregator struct {
	primary venue.Adapter
	cex     []venue.Adapter
}

// New constructs an Aggregator. primary must be the Hyperliquid adapter;
// cex holds the configured CEX adapter set (Binance, Bybit, OKX).
func New(primary venue.Adapter, cex ...venue.Adapter) *Aggregator {
	return &Aggregator{primary: primary, cex: cex}
}

// Aggregate calls every adapter concurrently and waits for all to settle —
// no short-circuit on any single adapter's failure. If the primary adapter
// fails, an empty result is returned (empty spreads, empty rates, current
// timestamp) and the system continues polling. If a CEX adapter fails, its
// contribution is treated as empty.
func (a *Aggregator) Aggregate(ctx context.Context) (*AggregatedResult, error) {
	now := time.Now().UnixMilli()

	var primaryRates []venue.FundingRate
	cexRates := make([][]venue.FundingRate, len(a.cex))

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		rates, err := a.primary.Fetch(gctx)
		if err != nil {
			logx.Errorf("aggregator: primary venue %s fetch failed: %v", a.primary.Venue(), err)
			return nil
		}
		primaryRates = rates
		return nil
	})
	for i, adapter := range a.cex {
		i, adapter := i, adapter
		group.Go(func() error {
			rates, err := adapter.Fetch(gctx)
			if err != nil {
				logx.Errorf("aggregator: cex venue %s fetch failed: %v", adapter.Venue(), err)
				return nil
			}
			cexRates[i] = rates
			return nil
		})
	}
	// group.Wait never returns an error here: every goroutine swallows its
	// own failure and logs, so the pipeline degrades but never crashes.
	_ = group.Wait()

	if len(primaryRates) == 0 {
		return &AggregatedResult{Spreads: nil, AllRates: nil, Timestamp: now}, nil
	}

	cexByAsset := make(map[string][]venue.FundingRate)
	for _, list := range cexRates {
		for _, r := range list {
			cexByAsset[r.Asset] = append(cexByAsset[r.Asset], r)
		}
	}

	allRates := make([]venue.FundingRate, 0, len(primaryRates))
	allRates = append(allRates, primaryRates...)
	for _, list := range cexRates {
		allRates = append(allRates, list...)
	}

	spreads := make([]FundingSpread, 0, len(primaryRates))
	for _, p := range primaryRates {
		cex := cexByAsset[p.Asset]
		spread := FundingSpread{Asset: p.Asset, Primary: p, Cex: cex, BestCex: "none"}
		var best *venue.FundingRate
		for i := range cex {
			if best == nil || math.Abs(cex[i].Rate8h) > math.Abs(best.Rate8h) {
				best = &cex[i]
			}
		}
		if best != nil {
			spread.BestCex = string(best.Venue)
			spread.BestCexRate = best.Rate8h
			spread.MaxSpread = p.Rate8h - best.Rate8h
		}
		spreads = append(spreads, spread)
	}

	sort.Slice(spreads, func(i, j int) bool {
		return math.Abs(spreads[i].MaxSpread) > math.Abs(spreads[j].MaxSpread)
	})

	return &AggregatedResult{Spreads: spreads, AllRates: allRates, Timestamp: now}, nil
}
