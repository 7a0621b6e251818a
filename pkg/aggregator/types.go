// Package aggregator fans out to every venue adapter and reconciles
// heterogeneous rate conventions into a common cross-venue spread model.
package aggregator

import "hldesk-api/pkg/venue"

// FundingSpread is the cross-venue view of one asset, keyed off the primary
// venue's rate.
type FundingSpread struct {
	Asset       string             `json:"asset"`
	Primary     venue.FundingRate  `json:"primary"`
	Cex         []venue.FundingRate `json:"cex"`
	BestCex     string             `json:"bestCex"`
	BestCexRate float64            `json:"bestCexRate"`
	MaxSpread   float64            `json:"maxSpread"`
}

// AggregatedResult is the full output of one aggregation pass.
type AggregatedResult struct {
	Spreads   []FundingSpread     `json:"spreads"`
	AllRates  []venue.FundingRate `json:"allRates"`
	Timestamp int64               `json:"timestamp"`
}
