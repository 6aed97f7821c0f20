package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/perkhive/recognition-gateway/pkg/errors"
)

func fakeResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_DetailBody(t *testing.T) {
	resp := fakeResponse(http.StatusBadRequest, `{"detail": "rating must be between 1 and 5"}`)

	err := ParseResponseError(resp, "recognition")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "rating must be between 1 and 5")
	assert.Contains(t, err.Error(), "recognition")
}

func TestParseResponseError_ErrorEnvelope(t *testing.T) {
	resp := fakeResponse(http.StatusConflict, `{"error": {"code": "ALREADY_CREDITED", "message": "review already credited"}}`)

	err := ParseResponseError(resp, "wallet")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	assert.Contains(t, err.Error(), "already credited")
}

func TestParseResponseError_UnstructuredBody(t *testing.T) {
	resp := fakeResponse(http.StatusBadGateway, "upstream exploded")

	err := ParseResponseError(resp, "media")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream exploded")
}

func TestParseResponseError_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, apperrors.ErrNotFound},
		{http.StatusUnauthorized, apperrors.ErrUnauthorized},
		{http.StatusForbidden, apperrors.ErrForbidden},
		{http.StatusTooManyRequests, apperrors.ErrQuotaExceeded},
		{http.StatusServiceUnavailable, apperrors.ErrServiceUnavail},
	}

	for _, tt := range tests {
		resp := fakeResponse(tt.status, `{"detail": "nope"}`)
		err := ParseResponseError(resp, "recognition")
		assert.True(t, errors.Is(err, tt.want), "status %d", tt.status)
	}
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(http.StatusBadRequest))
	assert.True(t, IsClientError(http.StatusConflict))
	assert.False(t, IsClientError(http.StatusOK))
	assert.False(t, IsClientError(http.StatusInternalServerError))
}
