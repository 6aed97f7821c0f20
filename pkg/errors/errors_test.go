package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := QuotaExceeded("monthly review limit of 5 reached")
	assert.Equal(t, "QUOTA_EXCEEDED: monthly review limit of 5 reached", err.Error())

	wrapped := &AppError{
		Code:    "UPLOAD_FAILED",
		Message: "media service rejected the file",
		Status:  http.StatusBadGateway,
		Err:     errors.New("connection refused"),
	}
	assert.Equal(t, "UPLOAD_FAILED: media service rejected the file: connection refused", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	err := QuotaExceeded("limit reached")
	assert.True(t, errors.Is(err, ErrQuotaExceeded))

	err2 := Conflict("receiver already reviewed this month")
	assert.True(t, errors.Is(err2, ErrConflict))
}

func TestHTTPStatus_AppError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("review", "r-1"), http.StatusNotFound},
		{"invalid input", InvalidInput("rating out of range"), http.StatusBadRequest},
		{"unauthorized", Unauthorized("authentication required"), http.StatusUnauthorized},
		{"forbidden", Forbidden("self review is not allowed"), http.StatusForbidden},
		{"conflict", Conflict("duplicate credit"), http.StatusConflict},
		{"quota", QuotaExceeded("limit reached"), http.StatusTooManyRequests},
		{"upload", UploadFailed("storage unreachable"), http.StatusBadGateway},
		{"unavailable", ServiceUnavailable("recognition service is down"), http.StatusServiceUnavailable},
		{"internal", Internal(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestHTTPStatus_Sentinels(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(fmt.Errorf("lookup: %w", ErrNotFound)))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(fmt.Errorf("check: %w", ErrQuotaExceeded)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("unknown")))
}

func TestHTTPStatus_WrappedAppError(t *testing.T) {
	err := fmt.Errorf("submit review: %w", QuotaExceeded("limit reached"))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(err))
}
