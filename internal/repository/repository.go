package repository

import (
	"context"

	"github.com/perkhive/recognition-gateway/internal/domain"
)

// CreditRetryRepository persists wallet credits that failed during
// submission so the reconciler can replay them.
type CreditRetryRepository interface {
	// Enqueue records a failed credit. Enqueueing the same review twice is
	// an upsert; the pending row is kept.
	Enqueue(ctx context.Context, retry *domain.CreditRetry) error

	// ListPending returns pending retries ordered oldest first, up to limit.
	ListPending(ctx context.Context, limit int) ([]domain.CreditRetry, error)

	// MarkCredited transitions a retry to credited.
	MarkCredited(ctx context.Context, id string) error

	// RecordFailure increments the attempt count and stores the error.
	// Retries that reach the attempt cap transition to exhausted.
	RecordFailure(ctx context.Context, id string, attemptErr string) error
}
