// Package paper implements the rule-based paper-trading engine: a
// per-portfolio state machine driving funding accrual, stop-loss, strategy
// entry/exit, and fee/P&L accounting, run independently per trader with
// float64 accounting throughout.
package paper

// Strategy is the closed set of paper-trading strategies, dispatched as a
// discriminated tag (see strategy.go) rather than subclassed.
type Strategy string

const (
	StrategyAggressive      Strategy = "aggressive"
	StrategyConservative    Strategy = "conservative"
	StrategyDiversified     Strategy = "diversified"
	StrategyNegativeFade    Strategy = "negative_fade"
	StrategyRegimeAdaptive  Strategy = "regime_adaptive"
)

// Side is the perpetual-futures position side.
type Side string

const (
	SideShortPerp Side = "short_perp"
	SideLongPerp  Side = "long_perp"
)

// Portfolio is the in-memory, domain-facing shape of a paper_portfolios row.
type Portfolio struct {
	ID             string
	StrategyName   Strategy
	StrategyConfig Config
	CashBalance    float64
	InitialBalance float64
	IsActive       bool
	CreatedAt      int64
}

// Position is the in-memory, domain-facing shape of a paper_positions row.
type Position struct {
	ID                    string
	PortfolioID           string
	Asset                 string
	Side                  Side
	SizeUsd               float64
	EntryRate8h           float64
	EntrySpread           float64
	EntryPrice            float64
	TotalFundingCollected float64
	LastFundingAt         int64
	OpenedAt              int64
	IsOpen                bool
	ExitPrice             *float64
	RealizedPnl           *float64
	ClosedAt              *int64
	FeesPaid              float64
}

// Transaction mirrors internal/model.TransactionType for the engine's
// in-memory bookkeeping before it is persisted.
type Transaction struct {
	PortfolioID string
	PositionID  *string
	Type        string // open | close | fee | funding
	Asset       string
	Amount      float64
	Description string
	CreatedAt   int64
}

const (
	entryFeeRate = 0.0005
	exitFeeRate  = 0.0005
)
