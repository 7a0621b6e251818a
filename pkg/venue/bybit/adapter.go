// Package bybit implements the Bybit linear-perpetual CEX adapter.
package bybit

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

const tickersURL = "https://api.bybit.com/v5/market/tickers?category=linear"

type Adapter struct {
	httpClient *http.Client
	baseURL    string
}

func New() *Adapter {
	return &Adapter{httpClient: venue.NewHTTPClient(), baseURL: tickersURL}
}

func (a *Adapter) Venue() venue.Venue { return venue.Bybit }

type tickersResponse struct {
	RetCode int `json:"retCode"`
	Result  struct {
		List []tickerEntry `json:"list"`
	} `json:"result"`
}

type tickerEntry struct {
	Symbol          string `json:"symbol"`
	MarkPrice       string `json:"markPrice"`
	FundingRate     string `json:"fundingRate"`
	NextFundingTime string `json:"nextFundingTime"`
	Price24hPcnt    string `json:"price24hPcnt"`
	Volume24h       string `json:"volume24h"`
	OpenInterest    string `json:"openInterest"`
}

// Fetch pulls the full linear-perpetual ticker list in one call. Bybit
// publishes a per-8h rate directly.
func (a *Adapter) Fetch(ctx context.Context) ([]venue.FundingRate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("bybit: build request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bybit: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bybit: unexpected status %d", resp.StatusCode)
	}

	var payload tickersResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("bybit: decode response: %w", err)
	}
	if payload.RetCode != 0 {
		return nil, fmt.Errorf("bybit: api error code %d", payload.RetCode)
	}

	now := time.Now().UnixMilli()
	rates := make([]venue.FundingRate, 0, len(payload.Result.List))
	for _, e := range payload.Result.List {
		if !strings.HasSuffix(e.Symbol, "USDT") {
			continue
		}
		rateRaw, err := strconv.ParseFloat(e.FundingRate, 64)
		if err != nil {
			continue
		}
		rate := venue.FundingRate{
			Asset:      venue.NormalizeAsset(e.Symbol),
			Venue:      venue.Bybit,
			RateRaw:    rateRaw,
			Rate8h:     rateRaw,
			ObservedAt: now,
		}
		if nft, err := strconv.ParseInt(e.NextFundingTime, 10, 64); err == nil {
			rate.NextFundingTime = nft
		}
		if mark, err := strconv.ParseFloat(e.MarkPrice, 64); err == nil {
			rate.MarkPrice = &mark
		}
		if vol, err := strconv.ParseFloat(e.Volume24h, 64); err == nil {
			rate.Volume24h = &vol
		}
		if oi, err := strconv.ParseFloat(e.OpenInterest, 64); err == nil {
			rate.OpenInterest = &oi
		}
		if pct, err := strconv.ParseFloat(e.Price24hPcnt, 64); err == nil {
			change := pct * 100
			rate.Change24h = &change
		}
		rates = append(rates, rate)
	}
	return rates, nil
}
