package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"hldesk-api/internal/apierr"
)

func TestWriteResultOkWritesPayload(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)

	writeResult(rec, req, map[string]string{"status": "ok"}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestWriteResultNotFoundMapsTo404(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/funding/doesnotexist", nil)

	writeResult(rec, req, nil, apierr.NotFound("unknown asset: doesnotexist"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWriteResultStoreErrorMapsTo500(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/paper/portfolios", nil)

	writeResult(rec, req, nil, apierr.Store("query failed", errors.New("connection reset")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWriteResultBusinessErrorDegradesTo200(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ai/run/momentum", nil)

	writeResult(rec, req, nil, apierr.Business("ai trading is not configured"))

	assert.Equal(t, http.StatusOK, rec.Code)
}
