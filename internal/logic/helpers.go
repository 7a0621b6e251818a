// Package logic implements the HTTP read surface's business logic, joining
// internal/svc's stores with the live rate cache to reconstruct
// mark-to-market values on every request.
package logic

import (
	"time"

	"hldesk-api/internal/model"
	"hldesk-api/internal/types"
	"hldesk-api/pkg/aggregator"
)

const millisPerDay = int64(24 * time.Hour / time.Millisecond)

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func toEquityPoints(rows []model.EquitySnapshotRow) []types.EquitySnapshotPoint {
	out := make([]types.EquitySnapshotPoint, len(rows))
	for i, r := range rows {
		out[i] = types.EquitySnapshotPoint{
			SnapshotAt: r.SnapshotAt, TotalValue: r.TotalValue, CashBalance: r.CashBalance,
			UnrealizedPnl: r.UnrealizedPnl, FundingCollected: r.FundingCollected, OpenPositions: r.OpenPositions,
		}
	}
	return out
}

// markByAsset indexes an aggregate's primary-venue mark prices by asset,
// the same join key pkg/sampler.Run uses against the rate cache.
func markByAsset(result *aggregator.AggregatedResult) map[string]float64 {
	if result == nil {
		return nil
	}
	out := make(map[string]float64, len(result.Spreads))
	for _, s := range result.Spreads {
		if s.Primary.MarkPrice != nil {
			out[s.Asset] = *s.Primary.MarkPrice
		}
	}
	return out
}

// priceReturnUsd mirrors pkg/paper/engine.go's currentMark/priceChangePct
// and pkg/sampler's positionPnl: the unrealized price P&L on a sizeUsd
// position opened at entryPrice, marked at mark, for the given side.
func priceReturnUsd(isLong bool, entryPrice, mark, sizeUsd float64) float64 {
	if entryPrice == 0 {
		return 0
	}
	pct := (mark - entryPrice) / entryPrice
	if !isLong {
		pct = -pct
	}
	return pct * sizeUsd
}

func pnlPct(totalValue, initialBalance float64) float64 {
	if initialBalance == 0 {
		return 0
	}
	return (totalValue - initialBalance) / initialBalance
}
