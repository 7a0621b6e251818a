// Package aitrader implements the LLM-driven trading agent engine: one
// decision per call, covering prompt assembly, decision validation, the
// OpenRouter client/retry path, and per-trader persona selection.
package aitrader

import "time"

// Action is the closed decision set a cycle can terminate in.
type Action string

const (
	ActionOpenLong  Action = "open_long"
	ActionOpenShort Action = "open_short"
	ActionClose     Action = "close"
	ActionHold      Action = "hold"
)

// Direction is the AI position's long/short tag.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Trader is the in-memory, domain-facing shape of an ai_traders row.
type Trader struct {
	ID          string
	Name        string
	Model       string
	Emoji       string
	Persona     string
	CashBalance float64
	IsActive    bool
}

// Position is the in-memory, domain-facing shape of an ai_positions row.
type Position struct {
	ID                    string
	TraderID              string
	Asset                 string
	Direction             Direction
	SizeUsd               float64
	EntryRate8h           float64
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

// Decision is the engine's single per-cycle output.
type Decision struct {
	Action    Action
	Asset     *string
	SizeUsd   *float64
	Reasoning string
}

// ConversationMessage is one message exchanged with the LLM during a
// decision cycle, persisted alongside the resulting Decision so the prompt
// and reply behind a trade can be inspected later. Digest is a short hash
// of Content, cheap to log at Info level without dumping the full text.
type ConversationMessage struct {
	Role    string
	Content string
	Digest  string
}

const (
	stopLossPct    = 0.15
	entryFeeRate   = 0.0005
	exitFeeRate    = 0.0005
	maxPositions   = 3
	sizeCapPct     = 0.3
	minPositionUsd = 100
	topNByOI       = 20
	llmTimeout     = 45 * time.Second
)
