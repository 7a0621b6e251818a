package paper

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"hldesk-api/pkg/aggregator"
)

// Store is the persistence dependency the engine needs. internal/svc wires
// an adapter over internal/model so pkg/paper stays decoupled from the
// storage layer.
type Store interface {
	ActivePortfolios(ctx context.Context) ([]Portfolio, error)
	OpenPositions(ctx context.Context, portfolioIDs []string) (map[string][]Position, error)
	UpdatePositionFunding(ctx context.Context, positionID string, totalFundingCollected float64, lastFundingAt int64) error
	InsertTransaction(ctx context.Context, tx Transaction) error
	ClosePosition(ctx context.Context, positionID string, exitPrice, realizedPnl float64, closedAt int64) error
	InsertPosition(ctx context.Context, pos Position) (string, error)
	UpdatePortfolioCash(ctx context.Context, portfolioID string, cashBalance float64) error
}

// Engine drives every active portfolio exactly once per poll cycle.
type Engine struct {
	store    Store
	inFlight sync.Map // portfolioID -> struct{}, serializes cycles per owner
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// RunCycle runs one trading cycle for every active portfolio against the
// given aggregate. Per-portfolio cycles that are already in flight (a prior
// tick's cycle still running) are skipped rather than queued: the only
// mutual exclusion required is per-portfolio serialization, achieved simply
// by never scheduling two cycles in parallel for the same owner.
func (e *Engine) RunCycle(ctx context.Context, result *aggregator.AggregatedResult) {
	portfolios, err := e.store.ActivePortfolios(ctx)
	if err != nil {
		logx.Errorf("paper: list active portfolios failed: %v", err)
		return
	}

	ids := make([]string, len(portfolios))
	for i, p := range portfolios {
		ids[i] = p.ID
	}
	openByPortfolio, err := e.store.OpenPositions(ctx, ids)
	if err != nil {
		logx.Errorf("paper: load open positions failed: %v", err)
		return
	}

	spreadByAsset := make(map[string]aggregator.FundingSpread, len(result.Spreads))
	for _, s := range result.Spreads {
		spreadByAsset[s.Asset] = s
	}

	for _, portfolio := range portfolios {
		if _, inFlight := e.inFlight.LoadOrStore(portfolio.ID, struct{}{}); inFlight {
			logx.Slowf("paper: portfolio %s cycle still in flight, skipping this tick", portfolio.ID)
			continue
		}
		e.runPortfolioCycle(ctx, portfolio, openByPortfolio[portfolio.ID], result.Spreads, spreadByAsset)
		e.inFlight.Delete(portfolio.ID)
	}
}

// runPortfolioCycle wraps the three-phase cycle in a recover guard: a panic
// or error in one portfolio must be logged and never abort the others.
func (e *Engine) runPortfolioCycle(ctx context.Context, portfolio Portfolio, positions []Position, spreads []aggregator.FundingSpread, spreadByAsset map[string]aggregator.FundingSpread) {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("paper: portfolio %s cycle panicked: %v", portfolio.ID, r)
		}
	}()

	now := time.Now()
	positions = e.accrueFunding(ctx, &portfolio, positions, spreadByAsset, now)
	positions = e.runExits(ctx, &portfolio, positions, spreadByAsset, now)
	e.runEntries(ctx, &portfolio, positions, spreads, now)

	if err := e.store.UpdatePortfolioCash(ctx, portfolio.ID, portfolio.CashBalance); err != nil {
		logx.Errorf("paper: persist cash balance for portfolio %s failed: %v", portfolio.ID, err)
	}
}

// accrueFunding is Phase 1.
func (e *Engine) accrueFunding(ctx context.Context, portfolio *Portfolio, positions []Position, spreadByAsset map[string]aggregator.FundingSpread, now time.Time) []Position {
	for i := range positions {
		pos := &positions[i]
		spread, ok := spreadByAsset[pos.Asset]
		if !ok {
			continue
		}
		deltaHours := int64((now.UnixMilli() - pos.LastFundingAt) / int64(time.Hour/time.Millisecond))
		if deltaHours <= 0 {
			continue
		}

		hourlyRate := spread.Primary.Rate8h / 8
		direction := 1.0
		if pos.Side == SideLongPerp {
			direction = -1.0
		}
		earned := pos.SizeUsd * hourlyRate * float64(deltaHours) * direction

		pos.TotalFundingCollected += earned
		pos.LastFundingAt += deltaHours * int64(time.Hour/time.Millisecond)
		portfolio.CashBalance += earned

		if err := e.store.UpdatePositionFunding(ctx, pos.ID, pos.TotalFundingCollected, pos.LastFundingAt); err != nil {
			logx.Errorf("paper: persist funding accrual for position %s failed: %v", pos.ID, err)
		}
		id := pos.ID
		if err := e.store.InsertTransaction(ctx, Transaction{
			PortfolioID: portfolio.ID, PositionID: &id, Type: "funding", Asset: pos.Asset,
			Amount: earned, Description: "funding accrual", CreatedAt: now.UnixMilli(),
		}); err != nil {
			logx.Errorf("paper: record funding transaction for position %s failed: %v", pos.ID, err)
		}
	}
	return positions
}

// runExits is Phase 2: stop-loss first (universal, every strategy), then the
// strategy-specific exit rule. Returns the still-open positions.
func (e *Engine) runExits(ctx context.Context, portfolio *Portfolio, positions []Position, spreadByAsset map[string]aggregator.FundingSpread, now time.Time) []Position {
	remaining := positions[:0:0]
	for _, pos := range positions {
		spread, ok := spreadByAsset[pos.Asset]
		if !ok {
			remaining = append(remaining, pos)
			continue
		}

		stop := portfolio.StrategyConfig.StopLossPct()
		pricePct := priceChangePct(pos.Side, pos.EntryPrice, currentMark(spread))
		exit, reason := false, ""
		if pricePct < -stop {
			exit, reason = true, "stop_loss"
		} else if evaluateExit(portfolio.StrategyName, portfolio.StrategyConfig, spread, &pos) {
			exit, reason = true, "strategy_exit"
		}

		if !exit {
			remaining = append(remaining, pos)
			continue
		}
		e.closePosition(ctx, portfolio, pos, spread, reason, now)
	}
	return remaining
}

func (e *Engine) closePosition(ctx context.Context, portfolio *Portfolio, pos Position, spread aggregator.FundingSpread, reason string, now time.Time) {
	mark := currentMark(spread)
	sideSign := 1.0
	if pos.Side == SideLongPerp {
		sideSign = -1.0
	}
	priceReturn := sideSign * (pos.EntryPrice - mark) / pos.EntryPrice * pos.SizeUsd
	exitFee := pos.SizeUsd * exitFeeRate
	realizedPnl := priceReturn + pos.TotalFundingCollected - exitFee
	// Funding was already credited incrementally in Phase 1, so the cash
	// credit at close excludes it — only realizedPnl (the reported figure)
	// includes funding, for attribution.
	cashCredit := pos.SizeUsd + priceReturn - exitFee
	portfolio.CashBalance += cashCredit

	if err := e.store.ClosePosition(ctx, pos.ID, mark, realizedPnl, now.UnixMilli()); err != nil {
		logx.Errorf("paper: close position %s failed: %v", pos.ID, err)
	}
	id := pos.ID
	if err := e.store.InsertTransaction(ctx, Transaction{
		PortfolioID: portfolio.ID, PositionID: &id, Type: "close", Asset: pos.Asset,
		Amount: cashCredit, Description: fmt.Sprintf("exit: %s", reason), CreatedAt: now.UnixMilli(),
	}); err != nil {
		logx.Errorf("paper: record close transaction for position %s failed: %v", pos.ID, err)
	}
}

// runEntries is Phase 3.
func (e *Engine) runEntries(ctx context.Context, portfolio *Portfolio, positions []Position, spreads []aggregator.FundingSpread, now time.Time) {
	cfg := portfolio.StrategyConfig
	openAssets := make(map[string]bool, len(positions))
	for _, p := range positions {
		openAssets[p.Asset] = true
	}

	totalValue := portfolio.CashBalance
	for _, p := range positions {
		totalValue += p.SizeUsd
	}
	maxPositionSize := totalValue * cfg.MaxPositionSizePct()
	maxPositions := cfg.MaxPositions()

	if len(positions) >= maxPositions || portfolio.CashBalance < maxPositionSize*0.5 {
		return
	}

	spreadByAsset := make(map[string]aggregator.FundingSpread, len(spreads))
	for _, s := range spreads {
		spreadByAsset[s.Asset] = s
	}

	candidates := entryCandidates(portfolio.StrategyName, cfg, spreads)
	for _, c := range candidates {
		if len(positions) >= maxPositions {
			break
		}
		if openAssets[c.Asset] {
			continue
		}

		fee := maxPositionSize * entryFeeRate
		positionSize := math.Min(maxPositionSize, portfolio.CashBalance-fee)
		if positionSize < 100 || portfolio.CashBalance < positionSize+fee {
			continue
		}

		spread := spreadByAsset[c.Asset]
		mark := currentMark(spread)
		pos := Position{
			PortfolioID: portfolio.ID, Asset: c.Asset, Side: c.Side, SizeUsd: positionSize,
			EntryRate8h: spread.Primary.Rate8h, EntrySpread: spread.MaxSpread, EntryPrice: mark,
			LastFundingAt: now.UnixMilli(), OpenedAt: now.UnixMilli(), IsOpen: true,
			FeesPaid: positionSize * entryFeeRate,
		}
		id, err := e.store.InsertPosition(ctx, pos)
		if err != nil {
			logx.Errorf("paper: open position for %s in portfolio %s failed: %v", c.Asset, portfolio.ID, err)
			continue
		}
		pos.ID = id

		portfolio.CashBalance -= positionSize + fee
		openAssets[c.Asset] = true
		positions = append(positions, pos)

		if err := e.store.InsertTransaction(ctx, Transaction{
			PortfolioID: portfolio.ID, PositionID: &id, Type: "open", Asset: c.Asset,
			Amount: -positionSize, Description: "entry", CreatedAt: now.UnixMilli(),
		}); err != nil {
			logx.Errorf("paper: record open transaction for %s failed: %v", c.Asset, err)
		}
		if err := e.store.InsertTransaction(ctx, Transaction{
			PortfolioID: portfolio.ID, PositionID: &id, Type: "fee", Asset: c.Asset,
			Amount: -fee, Description: "entry fee", CreatedAt: now.UnixMilli(),
		}); err != nil {
			logx.Errorf("paper: record fee transaction for %s failed: %v", c.Asset, err)
		}
	}
}

func currentMark(spread aggregator.FundingSpread) float64 {
	if spread.Primary.MarkPrice != nil {
		return *spread.Primary.MarkPrice
	}
	return 0
}

func priceChangePct(side Side, entryPrice, currentMark float64) float64 {
	if entryPrice == 0 {
		return 0
	}
	if side == SideShortPerp {
		return (entryPrice - currentMark) / entryPrice
	}
	return (currentMark - entryPrice) / entryPrice
}
