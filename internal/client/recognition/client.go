// Package recognition is the HTTP client for the recognition service, the
// system of record for reviews.
package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/perkhive/recognition-gateway/internal/domain"
	"github.com/perkhive/recognition-gateway/pkg/httpclient"
	"github.com/perkhive/recognition-gateway/pkg/pagination"
)

// HTTPDoer is the interface for executing HTTP requests. Both
// httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client talks to the recognition service REST API.
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

// ListParams filters the paginated review listing.
type ListParams struct {
	ReviewerID    string
	ReceiverID    string
	ReviewAtAfter time.Time
	Page          int
	PageSize      int
}

// listEnvelope tolerates both response shapes the recognition service has
// shipped: a paginated envelope and, from older deployments, a bare array.
type listEnvelope struct {
	Data       []domain.Review  `json:"data"`
	Pagination *pagination.Meta `json:"pagination"`
}

// List fetches one page of reviews. When the response is a bare array,
// HasNext is inferred from whether a full page came back.
func (c *Client) List(ctx context.Context, params ListParams) ([]domain.Review, pagination.Meta, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 || params.PageSize > pagination.MaxPageSize {
		params.PageSize = pagination.MaxPageSize
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(params.Page))
	q.Set("page_size", strconv.Itoa(params.PageSize))
	if params.ReviewerID != "" {
		q.Set("reviewer_id", params.ReviewerID)
	}
	if params.ReceiverID != "" {
		q.Set("receiver_id", params.ReceiverID)
	}
	if !params.ReviewAtAfter.IsZero() {
		q.Set("review_at_after", params.ReviewAtAfter.UTC().Format(time.RFC3339))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/reviews?"+q.Encode(), nil)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("create list reviews request: %w", err)
	}

	resp, err := c.httpClient.Do(ctx, httpReq)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("call recognition service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pagination.Meta{}, httpclient.ParseResponseError(resp, "recognition")
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("decode list reviews response: %w", err)
	}

	reviews, meta, err := decodeListBody(raw, params)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("decode list reviews body: %w", err)
	}

	return reviews, meta, nil
}

func decodeListBody(raw json.RawMessage, params ListParams) ([]domain.Review, pagination.Meta, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var reviews []domain.Review
		if err := json.Unmarshal(raw, &reviews); err != nil {
			return nil, pagination.Meta{}, err
		}
		meta := pagination.Meta{
			Page:     params.Page,
			PageSize: params.PageSize,
			HasNext:  len(reviews) == params.PageSize,
		}
		return reviews, meta, nil
	}

	var envelope listEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, pagination.Meta{}, err
	}
	meta := pagination.Meta{Page: params.Page, PageSize: params.PageSize}
	if envelope.Pagination != nil {
		meta = *envelope.Pagination
	}
	return envelope.Data, meta, nil
}

// CreateReviewRequest is the payload for creating a review. Media URLs are
// included only when an attachment of that kind was uploaded.
type CreateReviewRequest struct {
	ReviewerID string  `json:"reviewer_id"`
	ReceiverID string  `json:"receiver_id"`
	Rating     int     `json:"rating"`
	Comment    string  `json:"comment"`
	ImageURL   *string `json:"image_url,omitempty"`
	VideoURL   *string `json:"video_url,omitempty"`
}

// Create persists a new review and returns the canonical record.
func (c *Client) Create(ctx context.Context, req CreateReviewRequest) (*domain.Review, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal create review request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/reviews", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create review request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call recognition service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, httpclient.ParseResponseError(resp, "recognition")
	}

	return decodeReview(resp.Body)
}

// Get fetches a single review by ID.
func (c *Client) Get(ctx context.Context, reviewID string) (*domain.Review, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/reviews/"+url.PathEscape(reviewID), nil)
	if err != nil {
		return nil, fmt.Errorf("create get review request: %w", err)
	}

	resp, err := c.httpClient.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call recognition service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "recognition")
	}

	return decodeReview(resp.Body)
}

// UpdateReviewRequest carries the editable fields of a review.
type UpdateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Update modifies an existing review.
func (c *Client) Update(ctx context.Context, reviewID string, req UpdateReviewRequest) (*domain.Review, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal update review request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/v1/reviews/"+url.PathEscape(reviewID), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create update review request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call recognition service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "recognition")
	}

	return decodeReview(resp.Body)
}

// decodeReview tolerates both a bare review object and a {"data": {...}}
// envelope.
func decodeReview(body io.Reader) (*domain.Review, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode review response: %w", err)
	}

	var envelope struct {
		Data *domain.Review `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Data != nil && envelope.Data.ID != "" {
		return envelope.Data, nil
	}

	var review domain.Review
	if err := json.Unmarshal(raw, &review); err != nil {
		return nil, fmt.Errorf("decode review response: %w", err)
	}
	return &review, nil
}
