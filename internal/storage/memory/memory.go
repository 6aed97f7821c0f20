// Package memory is an in-memory attachment store for tests and local
// development. It keeps metadata only; bytes are discarded.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/perkhive/recognition-gateway/internal/domain"
	"github.com/perkhive/recognition-gateway/internal/storage"
)

// attachment records what was uploaded under a key.
type attachment struct {
	Filename    string
	ContentType string
	Kind        domain.AttachmentKind
	Size        int64
	URL         string
}

// Storage implements storage.Storage backed by a map.
type Storage struct {
	mu          sync.RWMutex
	attachments map[string]*attachment
	baseURL     string
}

// New creates an empty in-memory attachment store serving URLs under baseURL.
func New(baseURL string) *Storage {
	return &Storage{
		attachments: make(map[string]*attachment),
		baseURL:     baseURL,
	}
}

// kindSegment mirrors how the media service shards objects by kind.
func kindSegment(kind domain.AttachmentKind) string {
	switch kind {
	case domain.AttachmentImage:
		return "images"
	case domain.AttachmentVideo:
		return "videos"
	default:
		return "files"
	}
}

// Upload records attachment metadata and returns a kind-sharded URL.
func (s *Storage) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	if input.Key == "" {
		return nil, fmt.Errorf("attachment key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kind := domain.KindFromContentType(input.ContentType)
	url := fmt.Sprintf("%s/media/%s/%s", s.baseURL, kindSegment(kind), input.Key)

	s.attachments[input.Key] = &attachment{
		Filename:    input.Filename,
		ContentType: input.ContentType,
		Kind:        kind,
		Size:        input.Size,
		URL:         url,
	}

	return &storage.UploadResult{
		Key: input.Key,
		URL: url,
	}, nil
}

// Delete removes attachment metadata.
func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.attachments[key]; !exists {
		return fmt.Errorf("attachment not found: %s", key)
	}

	delete(s.attachments, key)
	return nil
}

// GetURL returns the URL for the given key.
func (s *Storage) GetURL(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.attachments[key]
	if !exists {
		return "", fmt.Errorf("attachment not found: %s", key)
	}

	return entry.URL, nil
}

// Kind reports the stored attachment's kind, or AttachmentOther for unknown
// keys.
func (s *Storage) Kind(key string) domain.AttachmentKind {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entry, exists := s.attachments[key]; exists {
		return entry.Kind
	}
	return domain.AttachmentOther
}

// Len reports how many attachments are stored.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attachments)
}
