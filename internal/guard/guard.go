// Package guard serializes concurrent review submissions per reviewer.
// Quota checks read from the recognition service, so two requests racing
// for the last quota slot could both pass; the guard closes that window.
package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/perkhive/recognition-gateway/pkg/errors"
)

const keyPrefix = "recognition:submit-lock:"

// SubmissionGuard is a per-reviewer single-flight lock backed by Redis SETNX.
type SubmissionGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a guard whose locks expire after ttl even if never released,
// so a crashed request cannot wedge a reviewer.
func New(client *redis.Client, ttl time.Duration) *SubmissionGuard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SubmissionGuard{client: client, ttl: ttl}
}

// Acquire takes the reviewer's submission lock. It returns a conflict error
// when another submission by the same reviewer is in flight.
func (g *SubmissionGuard) Acquire(ctx context.Context, reviewerID string) error {
	ok, err := g.client.SetNX(ctx, keyPrefix+reviewerID, "1", g.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire submission lock: %w", err)
	}
	if !ok {
		return apperrors.Conflict("another submission is already in progress")
	}
	return nil
}

// Release frees the reviewer's submission lock. Errors are returned so the
// caller can log them; the TTL bounds the damage either way.
func (g *SubmissionGuard) Release(ctx context.Context, reviewerID string) error {
	if err := g.client.Del(ctx, keyPrefix+reviewerID).Err(); err != nil {
		return fmt.Errorf("release submission lock: %w", err)
	}
	return nil
}
