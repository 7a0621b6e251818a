package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorsMiddlewareAllowsAnyOrigin(t *testing.T) {
	mw := corsMiddleware()
	next := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
	handler := mw(next)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorsMiddlewareHandlesPreflight(t *testing.T) {
	mw := corsMiddleware()
	called := false
	next := func(w http.ResponseWriter, r *http.Request) { called = true }
	handler := mw(next)

	req := httptest.NewRequest(http.MethodOptions, "/api/ai/run/momentum", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.False(t, called, "preflight request should be short-circuited by the cors middleware")
	assert.Equal(t, http.StatusOK, rec.Code)
}
