// Package hyperliquid implements the primary venue adapter. It fetches the
// whole asset universe in one metaAndAssetCtxs call instead of a per-symbol
// lookup, since the aggregator needs every asset, not one.
package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"hldesk-api/pkg/venue"
)

const infoURL = "https://api.hyperliquid.xyz/info"

// Adapter fetches funding, mark price and open interest for every
// perpetual asset Hyperliquid lists.
type Adapter struct {
	httpClient *http.Client
	baseURL    string
}

// New constructs a Hyperliquid adapter using a dedicated HTTP client.
func New() *Adapter {
	return &Adapter{httpClient: venue.NewHTTPClient(), baseURL: infoURL}
}

func (a *Adapter) Venue() venue.Venue { return venue.Hyperliquid }

type infoRequest struct {
	Type string `json:"type"`
}

type assetMeta struct {
	Name string `json:"name"`
}

type universeMeta struct {
	Universe []assetMeta `json:"universe"`
}

type assetCtx struct {
	Funding         string `json:"funding"`
	MarkPx          string `json:"markPx"`
	PrevDayPx       string `json:"prevDayPx"`
	OpenInterest    string `json:"openInterest"`
	DayNtlVlm       string `json:"dayNtlVlm"`
	NextFundingTime int64  `json:"nextFundingTime"`
}

// Fetch performs one metaAndAssetCtxs call and normalizes every listed asset
// into a FundingRate. Hyperliquid publishes an hourly funding rate, so
// rate8h = rateRaw * 8.
func (a *Adapter) Fetch(ctx context.Context) ([]venue.FundingRate, error) {
	body, err := json.Marshal(infoRequest{Type: "metaAndAssetCtxs"})
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hyperliquid: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hyperliquid: unexpected status %d", resp.StatusCode)
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("hyperliquid: decode response: %w", err)
	}
	if len(raw) < 2 {
		return nil, fmt.Errorf("hyperliquid: malformed response, expected [meta, ctxs]")
	}

	var meta universeMeta
	if err := json.Unmarshal(raw[0], &meta); err != nil {
		return nil, fmt.Errorf("hyperliquid: decode meta: %w", err)
	}
	var ctxs []assetCtx
	if err := json.Unmarshal(raw[1], &ctxs); err != nil {
		return nil, fmt.Errorf("hyperliquid: decode asset ctxs: %w", err)
	}
	if len(meta.Universe) != len(ctxs) {
		return nil, fmt.Errorf("hyperliquid: meta/ctx length mismatch (%d vs %d)", len(meta.Universe), len(ctxs))
	}

	now := time.Now().UnixMilli()
	rates := make([]venue.FundingRate, 0, len(ctxs))
	for i, c := range ctxs {
		funding, err := parseFloat(c.Funding)
		if err != nil {
			continue
		}
		mark, err := parseFloat(c.MarkPx)
		if err != nil {
			continue
		}

		rate := venue.FundingRate{
			Asset:           venue.NormalizeAsset(meta.Universe[i].Name),
			Venue:           venue.Hyperliquid,
			RateRaw:         funding,
			Rate8h:          funding * 8,
			NextFundingTime: c.NextFundingTime,
			MarkPrice:       &mark,
			ObservedAt:      now,
		}
		if oi, err := parseFloat(c.OpenInterest); err == nil {
			oiUsd := oi * mark
			rate.OpenInterest = &oiUsd
		}
		if vol, err := parseFloat(c.DayNtlVlm); err == nil {
			rate.Volume24h = &vol
		}
		if prevDay, err := parseFloat(c.PrevDayPx); err == nil && prevDay != 0 {
			change := (mark - prevDay) / prevDay * 100
			rate.Change24h = &change
		}
		rates = append(rates, rate)
	}
	return rates, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(s, 64)
}
