package paper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hldesk-api/pkg/aggregator"
	"hldesk-api/pkg/venue"
)

type fakeStore struct {
	portfolios   []Portfolio
	open         map[string][]Position
	fundingCalls int
	closeCalls   []string
	insertCalls  []Position
	txs          []Transaction
	cashUpdates  map[string]float64
}

func newFakeStore() *fakeStore {
	return &fakeStore{open: map[string][]Position{}, cashUpdates: map[string]float64{}}
}

func (f *fakeStore) ActivePortfolios(ctx context.Context) ([]Portfolio, error) {
	return f.portfolios, nil
}

func (f *fakeStore) OpenPositions(ctx context.Context, portfolioIDs []string) (map[string][]Position, error) {
	return f.open, nil
}

func (f *fakeStore) UpdatePositionFunding(ctx context.Context, positionID string, total float64, lastFundingAt int64) error {
	f.fundingCalls++
	return nil
}

func (f *fakeStore) InsertTransaction(ctx context.Context, tx Transaction) error {
	f.txs = append(f.txs, tx)
	return nil
}

func (f *fakeStore) ClosePosition(ctx context.Context, positionID string, exitPrice, realizedPnl float64, closedAt int64) error {
	f.closeCalls = append(f.closeCalls, positionID)
	return nil
}

func (f *fakeStore) InsertPosition(ctx context.Context, pos Position) (string, error) {
	f.insertCalls = append(f.insertCalls, pos)
	return "new-position-id", nil
}

func (f *fakeStore) UpdatePortfolioCash(ctx context.Context, portfolioID string, cashBalance float64) error {
	f.cashUpdates[portfolioID] = cashBalance
	return nil
}

func mark(v float64) *float64 { return &v }

func spreadFor(asset string, rate8h float64, markPrice float64) aggregator.FundingSpread {
	return aggregator.FundingSpread{
		Asset: asset,
		Primary: venue.FundingRate{
			Asset: asset, Venue: venue.Hyperliquid, Rate8h: rate8h, MarkPrice: mark(markPrice),
		},
		MaxSpread: 0.001,
	}
}

// S1: funding accrues hourly, floor(Δh), and direction flips with side.
func TestAccrueFundingCreditsShortsAndDebitsLongs(t *testing.T) {
	now := time.Now()
	threeHoursAgo := now.Add(-3 * time.Hour).UnixMilli()

	store := newFakeStore()
	portfolio := Portfolio{ID: "p1", StrategyName: StrategyAggressive, StrategyConfig: ParseConfig(nil), CashBalance: 1000}
	short := Position{ID: "pos-short", Asset: "BTC", Side: SideShortPerp, SizeUsd: 1000, LastFundingAt: threeHoursAgo}
	long := Position{ID: "pos-long", Asset: "BTC", Side: SideLongPerp, SizeUsd: 1000, LastFundingAt: threeHoursAgo}

	spreadByAsset := map[string]aggregator.FundingSpread{"BTC": spreadFor("BTC", 0.0008, 100)}
	engine := NewEngine(store)

	out := engine.accrueFunding(context.Background(), &portfolio, []Position{short, long}, spreadByAsset, now)
	require.Len(t, out, 2)

	hourlyRate := 0.0008 / 8
	expected := 1000 * hourlyRate * 3
	assert.InDelta(t, expected, out[0].TotalFundingCollected, 1e-9)
	assert.InDelta(t, -expected, out[1].TotalFundingCollected, 1e-9)
	assert.InDelta(t, expected-expected, portfolio.CashBalance-1000, 1e-9) // net zero across the two
	assert.Equal(t, 2, store.fundingCalls)
}

func TestAccrueFundingSkipsWhenLessThanOneHourElapsed(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	portfolio := Portfolio{ID: "p1", CashBalance: 1000}
	pos := Position{ID: "pos1", Asset: "BTC", Side: SideShortPerp, SizeUsd: 1000, LastFundingAt: now.Add(-30 * time.Minute).UnixMilli()}

	engine := NewEngine(store)
	out := engine.accrueFunding(context.Background(), &portfolio, []Position{pos}, map[string]aggregator.FundingSpread{"BTC": spreadFor("BTC", 0.0008, 100)}, now)

	assert.Equal(t, 0.0, out[0].TotalFundingCollected)
	assert.Equal(t, 0, store.fundingCalls)
}

// S2: stop-loss fires before the strategy-specific exit rule is ever
// evaluated, even when the strategy rule would have kept the position open.
func TestStopLossTakesPrecedenceOverStrategyExit(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	cfg := ParseConfig(map[string]interface{}{"stop_loss_pct": 0.10})
	portfolio := Portfolio{ID: "p1", StrategyName: StrategyAggressive, StrategyConfig: cfg, CashBalance: 500}
	// short at entry 100, mark now 115: adverse move of 15% > 10% stop.
	pos := Position{ID: "pos1", Asset: "BTC", Side: SideShortPerp, SizeUsd: 1000, EntryPrice: 100}

	spreadByAsset := map[string]aggregator.FundingSpread{"BTC": spreadFor("BTC", 0.0008, 115)}
	engine := NewEngine(store)

	remaining := engine.runExits(context.Background(), &portfolio, []Position{pos}, spreadByAsset, now)

	assert.Empty(t, remaining)
	require.Len(t, store.closeCalls, 1)
	assert.Equal(t, "pos1", store.closeCalls[0])
}

// The cash credit at close must not double-count funding already credited
// incrementally in Phase 1 — only realizedPnl (the reported figure)
// includes it.
func TestCloseDoesNotDoubleCountFunding(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	portfolio := Portfolio{ID: "p1", StrategyName: StrategyAggressive, StrategyConfig: ParseConfig(nil), CashBalance: 0}
	pos := Position{
		ID: "pos1", Asset: "BTC", Side: SideShortPerp, SizeUsd: 1000, EntryPrice: 100,
		TotalFundingCollected: 25,
	}
	spread := spreadFor("BTC", 0.0008, 100) // flat price, no stop-loss, no price P&L

	engine := NewEngine(store)
	engine.closePosition(context.Background(), &portfolio, pos, spread, "strategy_exit", now)

	exitFee := pos.SizeUsd * exitFeeRate
	// cash credit excludes the already-booked funding.
	expectedCashCredit := pos.SizeUsd - exitFee
	assert.InDelta(t, expectedCashCredit, portfolio.CashBalance, 1e-9)
	require.Len(t, store.txs, 1)
	assert.InDelta(t, expectedCashCredit, store.txs[0].Amount, 1e-9)
}

// S4: entries are gated on max position count and cash headroom, and never
// reopen an asset already held.
func TestEntriesRespectMaxPositionsAndCashGate(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	cfg := ParseConfig(map[string]interface{}{"max_positions": float64(1), "enter_spread_threshold": 0.0})
	portfolio := Portfolio{ID: "p1", StrategyName: StrategyAggressive, StrategyConfig: cfg, CashBalance: 10000}

	spreads := []aggregator.FundingSpread{
		{Asset: "BTC", Primary: venue.FundingRate{Rate8h: 0.001, MarkPrice: mark(100)}, MaxSpread: 0.01},
		{Asset: "ETH", Primary: venue.FundingRate{Rate8h: 0.001, MarkPrice: mark(50)}, MaxSpread: 0.02},
	}

	engine := NewEngine(store)
	// already at max_positions=1 with one open BTC position: no entry should fire.
	engine.runEntries(context.Background(), &portfolio, []Position{{Asset: "BTC"}}, spreads, now)
	assert.Empty(t, store.insertCalls)
}

func TestEntriesOpenTopRankedCandidateWithinCashLimits(t *testing.T) {
	now := time.Now()
	store := newFakeStore()
	cfg := ParseConfig(map[string]interface{}{"max_positions": float64(5), "enter_spread_threshold": 0.0, "max_position_size_pct": 0.20})
	portfolio := Portfolio{ID: "p1", StrategyName: StrategyAggressive, StrategyConfig: cfg, CashBalance: 10000}

	spreads := []aggregator.FundingSpread{
		{Asset: "BTC", Primary: venue.FundingRate{Rate8h: 0.001, MarkPrice: mark(100)}, MaxSpread: 0.01},
		{Asset: "ETH", Primary: venue.FundingRate{Rate8h: 0.001, MarkPrice: mark(50)}, MaxSpread: 0.02},
	}

	engine := NewEngine(store)
	engine.runEntries(context.Background(), &portfolio, nil, spreads, now)

	require.Len(t, store.insertCalls, 2)
	assert.Equal(t, "ETH", store.insertCalls[0].Asset) // higher maxSpread ranks first
	assert.Equal(t, "BTC", store.insertCalls[1].Asset)
}

func TestRunCycleSkipsPortfolioWithInFlightCycle(t *testing.T) {
	store := newFakeStore()
	store.portfolios = []Portfolio{{ID: "p1", StrategyConfig: ParseConfig(nil)}}
	engine := NewEngine(store)
	engine.inFlight.Store("p1", struct{}{})

	engine.RunCycle(context.Background(), &aggregator.AggregatedResult{})

	assert.Empty(t, store.cashUpdates)
}
