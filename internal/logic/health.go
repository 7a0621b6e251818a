package logic

import (
	"context"

	"hldesk-api/internal/svc"
	"hldesk-api/internal/types"
)

func Root() types.RootResponse {
	return types.RootResponse{Status: "ok", Service: "hldesk-api"}
}

func Health(ctx context.Context, svcCtx *svc.ServiceContext) types.HealthResponse {
	status := "ok"
	if svcCtx.RateCache.LastFetchMs() == 0 {
		status = "degraded"
	}
	return types.HealthResponse{
		Status:     status,
		LastFetch:  svcCtx.RateCache.LastFetchMs(),
		AssetCount: svcCtx.RateCache.AssetCount(),
		CacheAgeMs: svcCtx.RateCache.AgeMs(),
	}
}
