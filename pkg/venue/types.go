// Package venue defines the canonical funding-rate record and the adapter
// contract every supported exchange implements.
package venue

import "context"

// Venue identifies one of the supported funding-rate sources.
type Venue string

const (
	Hyperliquid Venue = "hyperliquid"
	Binance     Venue = "binance"
	Bybit       Venue = "bybit"
	OKX         Venue = "okx"
)

// FundingRate is one observation of one asset on one venue at one instant.
type FundingRate struct {
	Asset           string   `json:"asset"`
	Venue           Venue    `json:"venue"`
	Rate8h          float64  `json:"rate8h"`
	RateRaw         float64  `json:"rateRaw"`
	NextFundingTime int64    `json:"nextFundingTime"`
	OpenInterest    *float64 `json:"openInterest,omitempty"`
	MarkPrice       *float64 `json:"markPrice,omitempty"`
	Change24h       *float64 `json:"change24h,omitempty"`
	Volume24h       *float64 `json:"volume24h,omitempty"`
	ObservedAt      int64    `json:"observedAt"`
}

// Adapter fetches and normalizes funding data from one venue. Implementations
// must be stateless and idempotent: repeated calls with no network change
// produce equivalent results.
type Adapter interface {
	Venue() Venue
	Fetch(ctx context.Context) ([]FundingRate, error)
}
