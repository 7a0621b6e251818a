// Package handler wires the HTTP read surface: each handler parses its
// request, calls the matching internal/logic function, and writes the
// result as JSON, mapping internal/apierr kinds to HTTP status codes via
// go-zero's rest.Server + httpx request/response conventions.
package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"

	"hldesk-api/internal/apierr"
)

// writeResult writes resp as 200 OK, or maps a non-nil err through
// apierr.StatusCode. A nil err with a nil resp still writes 200 with a null
// body, which no handler in this package actually triggers.
func writeResult(w http.ResponseWriter, r *http.Request, resp interface{}, err error) {
	if err != nil {
		status := apierr.StatusCode(err)
		if status >= http.StatusInternalServerError {
			logx.WithContext(r.Context()).Errorf("request failed: %v", err)
		}
		httpx.WriteJson(w, status, map[string]string{"error": err.Error()})
		return
	}
	httpx.OkJson(w, resp)
}
