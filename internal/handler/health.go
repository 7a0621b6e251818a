package handler

import (
	"net/http"

	"hldesk-api/internal/logic"
	"hldesk-api/internal/svc"
)

func rootHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, r, logic.Root(), nil)
	}
}

func healthHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, r, logic.Health(r.Context(), svcCtx), nil)
	}
}
