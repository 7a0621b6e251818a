// Package sampler records hourly equity snapshots for every paper-trading
// portfolio and AI trading agent.
package sampler

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"hldesk-api/pkg/aggregator"
)

// Position is the minimal per-position shape the sampler needs to compute
// unrealized P&L, independent of whether it backs a paper_positions or
// ai_positions row.
type Position struct {
	Asset                 string
	IsLong                bool
	SizeUsd               float64
	EntryPrice            float64
	TotalFundingCollected float64
}

// Owner is one portfolio or agent and its currently open positions.
type Owner struct {
	ID          string
	CashBalance float64
	Positions   []Position
}

// Snapshot is one row to persist — table-agnostic; the Store implementation
// picks paper_snapshots or ai_snapshots.
type Snapshot struct {
	OwnerID          string
	SnapshotAt       int64
	TotalValue       float64
	CashBalance      float64
	UnrealizedPnl    float64
	FundingCollected float64
	OpenPositions    int
}

// Store is the persistence dependency the sampler needs.
type Store interface {
	PaperOwners(ctx context.Context) ([]Owner, error)
	AiOwners(ctx context.Context) ([]Owner, error)
	InsertPaperSnapshot(ctx context.Context, s Snapshot) error
	InsertAiSnapshot(ctx context.Context, s Snapshot) error
}

// Sampler runs the hourly snapshot job.
type Sampler struct {
	store Store
}

func New(store Store) *Sampler {
	return &Sampler{store: store}
}

// Run samples every paper portfolio and every AI agent against the given
// aggregate, inserting one snapshot per owner. Failures for one owner are
// logged and do not prevent the rest from being sampled.
func (s *Sampler) Run(ctx context.Context, result *aggregator.AggregatedResult) {
	now := time.Now().UnixMilli()
	markByAsset := make(map[string]float64, len(result.Spreads))
	for _, spread := range result.Spreads {
		if spread.Primary.MarkPrice != nil {
			markByAsset[spread.Asset] = *spread.Primary.MarkPrice
		}
	}

	paperOwners, err := s.store.PaperOwners(ctx)
	if err != nil {
		logx.Errorf("sampler: list paper owners failed: %v", err)
	} else {
		for _, owner := range paperOwners {
			snap := buildSnapshot(owner, markByAsset, now)
			if err := s.store.InsertPaperSnapshot(ctx, snap); err != nil {
				logx.Errorf("sampler: insert paper snapshot for %s failed: %v", owner.ID, err)
			}
		}
	}

	aiOwners, err := s.store.AiOwners(ctx)
	if err != nil {
		logx.Errorf("sampler: list ai owners failed: %v", err)
		return
	}
	for _, owner := range aiOwners {
		snap := buildSnapshot(owner, markByAsset, now)
		if err := s.store.InsertAiSnapshot(ctx, snap); err != nil {
			logx.Errorf("sampler: insert ai snapshot for %s failed: %v", owner.ID, err)
		}
	}
}

// buildSnapshot computes mark-to-market total value, unrealized P&L, and
// cumulative funding for one owner. Unrealized P&L uses the same signed
// formula as the paper and AI engines: funding is already realized in cash
// (credited incrementally every cycle) but reported separately here for
// attribution.
func buildSnapshot(owner Owner, markByAsset map[string]float64, now int64) Snapshot {
	totalValue := owner.CashBalance
	unrealized := 0.0
	funding := 0.0

	for _, p := range owner.Positions {
		mark, ok := markByAsset[p.Asset]
		if !ok {
			mark = p.EntryPrice
		}
		pnl := positionPnl(p, mark)
		unrealized += pnl
		funding += p.TotalFundingCollected
		totalValue += p.SizeUsd + pnl
	}

	return Snapshot{
		OwnerID: owner.ID, SnapshotAt: now, TotalValue: totalValue, CashBalance: owner.CashBalance,
		UnrealizedPnl: unrealized, FundingCollected: funding, OpenPositions: len(owner.Positions),
	}
}

func positionPnl(p Position, mark float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	if p.IsLong {
		return (mark - p.EntryPrice) / p.EntryPrice * p.SizeUsd
	}
	return (p.EntryPrice - mark) / p.EntryPrice * p.SizeUsd
}
