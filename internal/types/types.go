// Package types holds the request/response DTOs for the HTTP read surface.
package types

import "hldesk-api/pkg/aggregator"

type RootResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type HealthResponse struct {
	Status     string `json:"status"`
	LastFetch  int64  `json:"lastFetch"`
	AssetCount int    `json:"assetCount"`
	CacheAgeMs int64  `json:"cacheAge"`
}

type FundingListRequest struct {
	Limit int `form:"limit,optional"`
}

type FundingListResponse struct {
	Spreads []aggregator.FundingSpread `json:"spreads"`
}

type FundingDetailRequest struct {
	Asset string `path:"asset"`
}

type FundingHistoryRequest struct {
	Asset string `form:"asset,optional"`
	Venue string `form:"venue,optional"`
	From  int64  `form:"from,optional"`
	To    int64  `form:"to,optional"`
}

type FundingHistoryRow struct {
	Asset           string   `json:"asset"`
	Venue           string   `json:"venue"`
	Rate8h          float64  `json:"rate8h"`
	RateRaw         float64  `json:"rateRaw"`
	NextFundingTime int64    `json:"nextFundingTime"`
	OpenInterest    *float64 `json:"openInterest,omitempty"`
	MarkPrice       *float64 `json:"markPrice,omitempty"`
	Change24h       *float64 `json:"change24h,omitempty"`
	Volume24h       *float64 `json:"volume24h,omitempty"`
	ObservedAt      int64    `json:"observedAt"`
}

type FundingHistoryResponse struct {
	Rows []FundingHistoryRow `json:"rows"`
}

// PortfolioSummary is one paper_portfolios row enriched with mark-to-market
// values, used by both the portfolio list and the leaderboard.
type PortfolioSummary struct {
	ID             string  `json:"id"`
	StrategyName   string  `json:"strategyName"`
	CashBalance    float64 `json:"cashBalance"`
	InitialBalance float64 `json:"initialBalance"`
	TotalValue     float64 `json:"totalValue"`
	UnrealizedPnl  float64 `json:"unrealizedPnl"`
	PnlPct         float64 `json:"pnlPct"`
	OpenPositions  int     `json:"openPositions"`
	IsActive       bool    `json:"isActive"`
}

type PortfolioListResponse struct {
	Portfolios []PortfolioSummary `json:"portfolios"`
}

type PaperPositionView struct {
	ID                    string   `json:"id"`
	Asset                 string   `json:"asset"`
	Side                  string   `json:"side"`
	SizeUsd               float64  `json:"sizeUsd"`
	EntryPrice            float64  `json:"entryPrice"`
	EntryRate8h           float64  `json:"entryRate8h"`
	TotalFundingCollected float64  `json:"totalFundingCollected"`
	UnrealizedPnl         float64  `json:"unrealizedPnl,omitempty"`
	OpenedAt              int64    `json:"openedAt"`
	ClosedAt              *int64   `json:"closedAt,omitempty"`
	ExitPrice             *float64 `json:"exitPrice,omitempty"`
	RealizedPnl           *float64 `json:"realizedPnl,omitempty"`
}

type PaperTransactionView struct {
	ID          string  `json:"id"`
	PositionID  *string `json:"positionId,omitempty"`
	Type        string  `json:"type"`
	Asset       string  `json:"asset"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	CreatedAt   int64   `json:"createdAt"`
}

type PortfolioDetailRequest struct {
	ID string `path:"id"`
}

type PortfolioDetailResponse struct {
	PortfolioSummary
	OpenPositions   []PaperPositionView    `json:"openPositionsDetail"`
	ClosedPositions []PaperPositionView    `json:"closedPositions"`
	Transactions    []PaperTransactionView `json:"transactions"`
}

type SnapshotSeriesRequest struct {
	Days int `form:"days,optional"`
}

type EquitySnapshotPoint struct {
	SnapshotAt       int64   `json:"snapshotAt"`
	TotalValue       float64 `json:"totalValue"`
	CashBalance      float64 `json:"cashBalance"`
	UnrealizedPnl    float64 `json:"unrealizedPnl"`
	FundingCollected float64 `json:"fundingCollected"`
	OpenPositions    int     `json:"openPositions"`
}

type OwnerSeries struct {
	OwnerID string                `json:"ownerId"`
	Points  []EquitySnapshotPoint `json:"points"`
}

type SnapshotSeriesResponse struct {
	Series []OwnerSeries `json:"series"`
}

type AiTraderSummary struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Model          string  `json:"model"`
	Emoji          string  `json:"emoji"`
	CashBalance    float64 `json:"cashBalance"`
	TotalValue     float64 `json:"totalValue"`
	UnrealizedPnl  float64 `json:"unrealizedPnl"`
	PnlPct         float64 `json:"pnlPct"`
	OpenPositions  int     `json:"openPositions"`
	LastAction     string  `json:"lastAction,omitempty"`
	LastReasoning  string  `json:"lastReasoning,omitempty"`
}

type AiTraderListResponse struct {
	Traders []AiTraderSummary `json:"traders"`
}

type AiDecisionView struct {
	Action    string   `json:"action"`
	Asset     *string  `json:"asset,omitempty"`
	SizeUsd   *float64 `json:"sizeUsd,omitempty"`
	Reasoning string   `json:"reasoning"`
	CreatedAt int64    `json:"createdAt"`
}

type AiTraderDetailRequest struct {
	Name string `path:"name"`
}

type ConversationMessageView struct {
	Role      string `json:"role"`
	Digest    string `json:"digest"`
	Content   string `json:"content,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

type ConversationView struct {
	ID         string                    `json:"id"`
	DecisionID *string                   `json:"decisionId,omitempty"`
	CreatedAt  int64                     `json:"createdAt"`
	Messages   []ConversationMessageView `json:"messages"`
}

type AiTraderDetailResponse struct {
	AiTraderSummary
	OpenPositions []PaperPositionView `json:"openPositionsDetail"`
	Decisions     []AiDecisionView    `json:"decisions"`
	Conversations []ConversationView  `json:"conversations,omitempty"`
}

type AiRunRequest struct {
	Name string `path:"name"`
}

type AiRunResponse struct {
	Action    string   `json:"action"`
	Asset     *string  `json:"asset,omitempty"`
	SizeUsd   *float64 `json:"sizeUsd,omitempty"`
	Reasoning string   `json:"reasoning"`
}

type SnapshotRunResponse struct {
	Ok           bool `json:"ok"`
	Snapshotted  int  `json:"snapshotted"`
}
