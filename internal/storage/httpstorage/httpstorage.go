// Package httpstorage implements attachment storage backed by the media
// service's multipart upload endpoint.
package httpstorage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"

	"github.com/perkhive/recognition-gateway/internal/storage"
	"github.com/perkhive/recognition-gateway/pkg/httpclient"
)

// HTTPDoer is the interface for executing HTTP requests.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Storage uploads attachments to the media service and returns durable URLs.
type Storage struct {
	httpClient HTTPDoer
	baseURL    string
	timeout    time.Duration
}

func New(httpClient HTTPDoer, baseURL string, timeout time.Duration) *Storage {
	return &Storage{
		httpClient: httpClient,
		baseURL:    baseURL,
		timeout:    timeout,
	}
}

type uploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Upload sends the file to POST /v1/media as multipart/form-data. The media
// service persists it and returns a durable URL.
func (s *Storage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, input.Filename))
	header.Set("Content-Type", input.ContentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create multipart field: %w", err)
	}
	if _, err := io.Copy(part, input.Data); err != nil {
		return nil, fmt.Errorf("copy upload data: %w", err)
	}
	if err := writer.WriteField("key", input.Key); err != nil {
		return nil, fmt.Errorf("write key field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/media", &buf)
	if err != nil {
		return nil, fmt.Errorf("create upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("call media service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, httpclient.ParseResponseError(resp, "media")
	}

	var uploadResp uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if uploadResp.URL == "" {
		return nil, fmt.Errorf("media service returned empty url")
	}

	key := uploadResp.Key
	if key == "" {
		key = input.Key
	}

	return &storage.UploadResult{Key: key, URL: uploadResp.URL}, nil
}

// Delete removes an attachment by key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+"/v1/media/"+url.PathEscape(key), nil)
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}

	resp, err := s.httpClient.Do(ctx, httpReq)
	if err != nil {
		return fmt.Errorf("call media service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return httpclient.ParseResponseError(resp, "media")
	}

	return nil
}

// GetURL resolves the public URL for a stored key.
func (s *Storage) GetURL(ctx context.Context, key string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/media/"+url.PathEscape(key), nil)
	if err != nil {
		return "", fmt.Errorf("create get url request: %w", err)
	}

	resp, err := s.httpClient.Do(ctx, httpReq)
	if err != nil {
		return "", fmt.Errorf("call media service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", httpclient.ParseResponseError(resp, "media")
	}

	var getResp uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&getResp); err != nil {
		return "", fmt.Errorf("decode get url response: %w", err)
	}

	return getResp.URL, nil
}
