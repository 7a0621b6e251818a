package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"hldesk-api/internal/logic"
	"hldesk-api/internal/svc"
	"hldesk-api/internal/types"
)

func fundingListHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.FundingListRequest
		if err := httpx.Parse(r, &req); err != nil {
			writeResult(w, r, nil, err)
			return
		}
		resp, err := logic.FundingList(r.Context(), svcCtx, req)
		writeResult(w, r, resp, err)
	}
}

func fundingDetailHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.FundingDetailRequest
		if err := httpx.Parse(r, &req); err != nil {
			writeResult(w, r, nil, err)
			return
		}
		resp, err := logic.FundingDetail(r.Context(), svcCtx, req)
		writeResult(w, r, resp, err)
	}
}

func fundingHistoryHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.FundingHistoryRequest
		if err := httpx.Parse(r, &req); err != nil {
			writeResult(w, r, nil, err)
			return
		}
		resp, err := logic.FundingHistory(r.Context(), svcCtx, req)
		writeResult(w, r, resp, err)
	}
}
