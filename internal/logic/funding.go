package logic

import (
	"context"
	"math"
	"sort"
	"strings"

	"hldesk-api/internal/apierr"
	"hldesk-api/internal/svc"
	"hldesk-api/internal/types"
	"hldesk-api/pkg/aggregator"
)

// FundingList returns the top-N spreads by absolute cross-venue spread
// magnitude. limit is clamped to [1,100] and defaults to 20.
func FundingList(ctx context.Context, svcCtx *svc.ServiceContext, req types.FundingListRequest) (*types.FundingListResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	result := svcCtx.RateCache.Snapshot()
	if result == nil {
		return &types.FundingListResponse{Spreads: []aggregator.FundingSpread{}}, nil
	}

	spreads := make([]aggregator.FundingSpread, len(result.Spreads))
	copy(spreads, result.Spreads)
	sort.Slice(spreads, func(i, j int) bool {
		return math.Abs(spreads[i].MaxSpread) > math.Abs(spreads[j].MaxSpread)
	})
	if limit < len(spreads) {
		spreads = spreads[:limit]
	}
	return &types.FundingListResponse{Spreads: spreads}, nil
}

// FundingDetail returns the single spread for asset (case-insensitive), or a
// 404-flavored validation error.
func FundingDetail(ctx context.Context, svcCtx *svc.ServiceContext, req types.FundingDetailRequest) (*aggregator.FundingSpread, error) {
	result := svcCtx.RateCache.Snapshot()
	if result != nil {
		for _, s := range result.Spreads {
			if strings.EqualFold(s.Asset, req.Asset) {
				spread := s
				return &spread, nil
			}
		}
	}
	return nil, apierr.NotFound("unknown asset: " + req.Asset)
}

// FundingHistory returns up to 1000 raw rate rows ordered by time desc.
func FundingHistory(ctx context.Context, svcCtx *svc.ServiceContext, req types.FundingHistoryRequest) (*types.FundingHistoryResponse, error) {
	if svcCtx.FundingSnapshotsModel == nil {
		return &types.FundingHistoryResponse{Rows: []types.FundingHistoryRow{}}, nil
	}
	rows, err := svcCtx.FundingSnapshotsModel.History(ctx, req.Asset, req.Venue, req.From, req.To, 1000)
	if err != nil {
		return nil, apierr.Store("funding history query failed", err)
	}
	out := make([]types.FundingHistoryRow, len(rows))
	for i, r := range rows {
		out[i] = types.FundingHistoryRow{
			Asset: r.Asset, Venue: r.Venue, Rate8h: r.Rate8h, RateRaw: r.RateRaw,
			NextFundingTime: r.NextFundingTime, OpenInterest: r.OpenInterest, MarkPrice: r.MarkPrice,
			Change24h: r.Change24h, Volume24h: r.Volume24h, ObservedAt: r.ObservedAt,
		}
	}
	return &types.FundingHistoryResponse{Rows: out}, nil
}
