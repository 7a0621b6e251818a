package apierr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode_ValidationMapsToBadRequest(t *testing.T) {
	err := Validation("missing required query param: asset")
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
}

func TestStatusCode_NotFoundMapsTo404(t *testing.T) {
	err := NotFound("unknown portfolio: p1")
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
	assert.True(t, IsNotFound(err))
}

func TestStatusCode_StoreMapsTo500(t *testing.T) {
	err := Store("query failed", errors.New("connection reset"))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
}

func TestStatusCode_TransportAndBusinessDegradeTo200(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusCode(Transport("venue fetch failed", errors.New("timeout"))))
	assert.Equal(t, http.StatusOK, StatusCode(Business("insufficient cash")))
}

func TestStatusCode_UnclassifiedErrorDefaultsTo200(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusCode(errors.New("plain error")))
}

func TestError_UnwrapExposesCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Transport("hyperliquid fetch failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "timeout")
}
