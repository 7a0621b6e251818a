package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"hldesk-api/internal/logic"
	"hldesk-api/internal/svc"
	"hldesk-api/internal/types"
)

func aiTraderListHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := logic.AiTraderList(r.Context(), svcCtx)
		writeResult(w, r, resp, err)
	}
}

func aiTraderDetailHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.AiTraderDetailRequest
		if err := httpx.Parse(r, &req); err != nil {
			writeResult(w, r, nil, err)
			return
		}
		resp, err := logic.AiTraderDetail(r.Context(), svcCtx, req)
		writeResult(w, r, resp, err)
	}
}

func aiSnapshotsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SnapshotSeriesRequest
		if err := httpx.Parse(r, &req); err != nil {
			writeResult(w, r, nil, err)
			return
		}
		resp, err := logic.AiSnapshots(r.Context(), svcCtx, req)
		writeResult(w, r, resp, err)
	}
}

func aiRunHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.AiRunRequest
		if err := httpx.Parse(r, &req); err != nil {
			writeResult(w, r, nil, err)
			return
		}
		resp, err := logic.AiRun(r.Context(), svcCtx, req)
		writeResult(w, r, resp, err)
	}
}
