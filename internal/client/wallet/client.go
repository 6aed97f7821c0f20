// Package wallet is the HTTP client for the wallet service, which holds
// employee point balances.
package wallet

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/perkhive/recognition-gateway/pkg/httpclient"
)

// HTTPDoer is the interface for executing HTTP requests.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client talks to the wallet service REST API.
type Client struct {
	httpClient HTTPDoer
	baseURL    string
	timeout    time.Duration
}

func New(httpClient HTTPDoer, baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		timeout:    timeout,
	}
}

// CreditFromReviewRequest credits the receiver for a submitted review. Only
// the review ID goes on the wire; the wallet service derives the receiver and
// point value from the review itself. ReceiverID and Points are carried for
// logging and the credit-retry queue.
type CreditFromReviewRequest struct {
	ReviewID   string
	ReceiverID string
	Points     int
}

// CreditFromReview credits points to the receiver's wallet. The review ID is
// sent as a query parameter and doubles as the idempotency key: a 409 means
// the credit for this review was already applied and is treated as success.
func (c *Client) CreditFromReview(ctx context.Context, req CreditFromReviewRequest) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	q := url.Values{}
	q.Set("review_id", req.ReviewID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/wallets/credit-from-review?"+q.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("create credit request: %w", err)
	}

	resp, err := c.httpClient.Do(ctx, httpReq)
	if err != nil {
		return fmt.Errorf("call wallet service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusConflict:
		// Already credited for this review.
		return nil
	default:
		return httpclient.ParseResponseError(resp, "wallet")
	}
}
