package logic

import (
	"context"

	"hldesk-api/internal/apierr"
	"hldesk-api/internal/svc"
	"hldesk-api/internal/types"
)

// SnapshotRun triggers one sampler pass for every paper portfolio and AI
// agent, returning the count of owners snapshotted.
func SnapshotRun(ctx context.Context, svcCtx *svc.ServiceContext) (*types.SnapshotRunResponse, error) {
	if svcCtx.Sampler == nil {
		return nil, apierr.Business("snapshot sampler is not configured")
	}
	result := svcCtx.RateCache.Snapshot()
	if result == nil {
		var err error
		result, err = svcCtx.Aggregator.Aggregate(ctx)
		if err != nil {
			return nil, apierr.Transport("aggregate failed", err)
		}
		svcCtx.RateCache.Update(result)
	}

	portfolios, _ := svcCtx.PaperPortfoliosModel.ListActive(ctx)
	traders, _ := svcCtx.AiTradersModel.ListActive(ctx)
	svcCtx.Sampler.Run(ctx, result)

	return &types.SnapshotRunResponse{Ok: true, Snapshotted: len(portfolios) + len(traders)}, nil
}
