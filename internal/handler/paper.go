package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"hldesk-api/internal/logic"
	"hldesk-api/internal/svc"
	"hldesk-api/internal/types"
)

func portfolioListHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := logic.PortfolioList(r.Context(), svcCtx)
		writeResult(w, r, resp, err)
	}
}

func leaderboardHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := logic.Leaderboard(r.Context(), svcCtx)
		writeResult(w, r, resp, err)
	}
}

func portfolioDetailHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.PortfolioDetailRequest
		if err := httpx.Parse(r, &req); err != nil {
			writeResult(w, r, nil, err)
			return
		}
		resp, err := logic.PortfolioDetail(r.Context(), svcCtx, req)
		writeResult(w, r, resp, err)
	}
}

func paperSnapshotsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SnapshotSeriesRequest
		if err := httpx.Parse(r, &req); err != nil {
			writeResult(w, r, nil, err)
			return
		}
		resp, err := logic.PaperSnapshots(r.Context(), svcCtx, req)
		writeResult(w, r, resp, err)
	}
}
