package wallet

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/perkhive/recognition-gateway/pkg/errors"
	"github.com/perkhive/recognition-gateway/pkg/httpclient"
)

func newTestClient(serverURL string) *Client {
	return New(httpclient.New(httpclient.Config{
		Timeout:    2 * time.Second,
		MaxRetries: 0,
	}), serverURL, 2*time.Second)
}

func TestCreditFromReviewSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/wallets/credit-from-review", r.URL.Path)
		assert.Equal(t, "rev-1", r.URL.Query().Get("review_id"))

		// The review ID alone identifies the credit; no body accompanies it.
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Empty(t, body)

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	err := client.CreditFromReview(context.Background(), CreditFromReviewRequest{
		ReviewID:   "rev-1",
		ReceiverID: "emp-2",
		Points:     50,
	})
	assert.NoError(t, err)
}

func TestCreditFromReviewConflictIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"detail": "already credited"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	err := client.CreditFromReview(context.Background(), CreditFromReviewRequest{
		ReviewID:   "rev-1",
		ReceiverID: "emp-2",
		Points:     20,
	})
	assert.NoError(t, err)
}

func TestCreditFromReviewServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail": "wallet ledger unavailable"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	err := client.CreditFromReview(context.Background(), CreditFromReviewRequest{
		ReviewID:   "rev-1",
		ReceiverID: "emp-2",
		Points:     10,
	})
	assert.Error(t, err)
}

func TestCreditFromReviewBadRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"INVALID_INPUT","message":"points must be positive"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	err := client.CreditFromReview(context.Background(), CreditFromReviewRequest{
		ReviewID:   "rev-1",
		ReceiverID: "emp-2",
		Points:     -1,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
