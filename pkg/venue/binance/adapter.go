// Package binance implements the Binance USDT-margined perpetual CEX
// adapter. Grounded on the same request/parse shape as
// pkg/venue/hyperliquid, generalized to Binance's premiumIndex payload.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hldesk-api/pkg/venue"
)

const premiumIndexURL = "https://fapi.binance.com/fapi/v1/premiumIndex"

type Adapter struct {
	httpClient *http.Client
	baseURL    string
}

func New() *Adapter {
	return &Adapter{httpClient: venue.NewHTTPClient(), baseURL: premiumIndexURL}
}

func (a *Adapter) Venue() venue.Venue { return venue.Binance }

type premiumIndexEntry struct {
	Symbol          string `json:"symbol"`
	MarkPrice       string `json:"markPrice"`
	LastFundingRate string `json:"lastFundingRate"`
	NextFundingTime int64  `json:"nextFundingTime"`
}

// Fetch pulls every symbol's premium index in one call. Binance publishes a
// per-8h rate directly, so rate8h = rateRaw with no conversion.
func (a *Adapter) Fetch(ctx context.Context) ([]venue.FundingRate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("binance: build request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("binance: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("binance: unexpected status %d", resp.StatusCode)
	}

	var entries []premiumIndexEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("binance: decode response: %w", err)
	}

	now := time.Now().UnixMilli()
	rates := make([]venue.FundingRate, 0, len(entries))
	for _, e := range entries {
		if !strings.HasSuffix(e.Symbol, "USDT") {
			continue
		}
		rateRaw, err := strconv.ParseFloat(e.LastFundingRate, 64)
		if err != nil {
			continue
		}
		rate := venue.FundingRate{
			Asset:           venue.NormalizeAsset(e.Symbol),
			Venue:           venue.Binance,
			RateRaw:         rateRaw,
			Rate8h:          rateRaw,
			NextFundingTime: e.NextFundingTime,
			ObservedAt:      now,
		}
		if mark, err := strconv.ParseFloat(e.MarkPrice, 64); err == nil {
			rate.MarkPrice = &mark
		}
		rates = append(rates, rate)
	}
	return rates, nil
}
