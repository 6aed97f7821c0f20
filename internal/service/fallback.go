package service

import (
	"context"
	"net/http"

	apperrors "github.com/perkhive/recognition-gateway/pkg/errors"
)

// CircuitOpenFallback is invoked when the downstream circuit breaker is open.
// It converts the breaker rejection into a 503 the HTTP layer can render.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("downstream service is temporarily unavailable, please retry after 30 seconds")
}
