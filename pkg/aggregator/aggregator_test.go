package aggregator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hldesk-api/pkg/venue"
)

type fakeAdapter struct {
	venue venue.Venue
	rates []venue.FundingRate
	err   error
}

func (f *fakeAdapter) Venue() venue.Venue { return f.venue }
func (f *fakeAdapter) Fetch(ctx context.Context) ([]venue.FundingRate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rates, nil
}

// S3 — Spread ordering: primary HYPE rate +0.006, Bybit +0.0001, OKX -0.005.
func TestAggregateSpreadOrdering(t *testing.T) {
	primary := &fakeAdapter{venue: venue.Hyperliquid, rates: []venue.FundingRate{
		{Asset: "HYPE", Venue: venue.Hyperliquid, Rate8h: 0.006},
	}}
	bybit := &fakeAdapter{venue: venue.Bybit, rates: []venue.FundingRate{
		{Asset: "HYPE", Venue: venue.Bybit, Rate8h: 0.0001},
	}}
	okx := &fakeAdapter{venue: venue.OKX, rates: []venue.FundingRate{
		{Asset: "HYPE", Venue: venue.OKX, Rate8h: -0.005},
	}}

	agg := New(primary, bybit, okx)
	result, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Spreads, 1)

	s := result.Spreads[0]
	assert.Equal(t, string(venue.OKX), s.BestCex)
	assert.InDelta(t, -0.005, s.BestCexRate, 1e-12)
	assert.InDelta(t, 0.011, s.MaxSpread, 1e-9)
}

func TestAggregatePrimaryFailureReturnsEmptyResult(t *testing.T) {
	primary := &fakeAdapter{venue: venue.Hyperliquid, err: errors.New("timeout")}
	binance := &fakeAdapter{venue: venue.Binance, rates: []venue.FundingRate{
		{Asset: "BTC", Venue: venue.Binance, Rate8h: 0.0001},
	}}

	agg := New(primary, binance)
	result, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Spreads)
	assert.Empty(t, result.AllRates)
}

func TestAggregateCexFailureDegradesGracefully(t *testing.T) {
	primary := &fakeAdapter{venue: venue.Hyperliquid, rates: []venue.FundingRate{
		{Asset: "BTC", Venue: venue.Hyperliquid, Rate8h: 0.001},
	}}
	failingCex := &fakeAdapter{venue: venue.Binance, err: errors.New("boom")}
	okCex := &fakeAdapter{venue: venue.Bybit, rates: []venue.FundingRate{
		{Asset: "BTC", Venue: venue.Bybit, Rate8h: 0.0005},
	}}

	agg := New(primary, failingCex, okCex)
	result, err := agg.Aggregate(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Spreads, 1)
	assert.Equal(t, string(venue.Bybit), result.Spreads[0].BestCex)
}
