// Package okx implements the OKX swap adapter. OKX has no bulk funding
// endpoint, so the adapter fans out per-instrument funding-rate requests in
// batches of 20 via golang.org/x/sync/errgroup, tolerating per-instrument
// failure by skipping it.
package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"hldesk-api/pkg/venue"
)

const (
	instrumentsURL = "https://www.okx.com/api/v5/public/instruments?instType=SWAP"
	fundingURL     = "https://www.okx.com/api/v5/public/funding-rate?instId="
	batchSize      = 20
)

type Adapter struct {
	httpClient *http.Client
}

func New() *Adapter {
	return &Adapter{httpClient: venue.NewHTTPClient()}
}

func (a *Adapter) Venue() venue.Venue { return venue.OKX }

type okxEnvelope struct {
	Code string            `json:"code"`
	Data []json.RawMessage `json:"data"`
}

type instrumentEntry struct {
	InstID   string `json:"instId"`
	SettleCcy string `json:"settleCcy"`
}

type fundingRateEntry struct {
	InstID          string `json:"instId"`
	FundingRate     string `json:"fundingRate"`
	NextFundingTime string `json:"nextFundingTime"`
}

// Fetch lists USDT-settled swap instruments, then fetches each instrument's
// funding rate in batches of batchSize, running each batch's requests
// concurrently and skipping any instrument whose call fails.
func (a *Adapter) Fetch(ctx context.Context) ([]venue.FundingRate, error) {
	instruments, err := a.listInstruments(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	var rates []venue.FundingRate

	for start := 0; start < len(instruments); start += batchSize {
		end := start + batchSize
		if end > len(instruments) {
			end = len(instruments)
		}
		batch := instruments[start:end]

		results := make([]*venue.FundingRate, len(batch))
		group, gctx := errgroup.WithContext(ctx)
		for i, instID := range batch {
			i, instID := i, instID
			group.Go(func() error {
				rate, err := a.fetchFundingRate(gctx, instID, now)
				if err != nil {
					// per-instrument failure is tolerated: skip, don't fail the batch
					return nil
				}
				results[i] = rate
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, fmt.Errorf("okx: batch fan-out: %w", err)
		}
		for _, r := range results {
			if r != nil {
				rates = append(rates, *r)
			}
		}
	}
	return rates, nil
}

func (a *Adapter) listInstruments(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, instrumentsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("okx: build instruments request: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("okx: instruments request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("okx: unexpected status %d", resp.StatusCode)
	}

	var env okxEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("okx: decode instruments: %w", err)
	}

	instIDs := make([]string, 0, len(env.Data))
	for _, raw := range env.Data {
		var entry instrumentEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if entry.SettleCcy != "USDT" {
			continue
		}
		instIDs = append(instIDs, entry.InstID)
	}
	return instIDs, nil
}

func (a *Adapter) fetchFundingRate(ctx context.Context, instID string, observedAt int64) (*venue.FundingRate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fundingURL+instID, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("okx: unexpected status %d for %s", resp.StatusCode, instID)
	}

	var env okxEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, err
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("okx: empty funding rate for %s", instID)
	}
	var entry fundingRateEntry
	if err := json.Unmarshal(env.Data[0], &entry); err != nil {
		return nil, err
	}
	rateRaw, err := strconv.ParseFloat(entry.FundingRate, 64)
	if err != nil {
		return nil, err
	}
	nft, _ := strconv.ParseInt(entry.NextFundingTime, 10, 64)

	asset := strings.TrimSuffix(instID, "-USDT-SWAP")
	return &venue.FundingRate{
		Asset:           venue.NormalizeAsset(asset),
		Venue:           venue.OKX,
		RateRaw:         rateRaw,
		Rate8h:          rateRaw,
		NextFundingTime: nft,
		ObservedAt:      observedAt,
	}, nil
}
