package handler

import (
	"net/http"

	"hldesk-api/internal/logic"
	"hldesk-api/internal/svc"
)

// snapshotRunHandler exposes C8's sampler as an on-demand internal route,
// used by operators to force a snapshot outside the hourly cadence.
func snapshotRunHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := logic.SnapshotRun(r.Context(), svcCtx)
		writeResult(w, r, resp, err)
	}
}
