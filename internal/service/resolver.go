package service

import (
	"context"
	"fmt"
	"time"

	"github.com/perkhive/recognition-gateway/internal/client/recognition"
	"github.com/perkhive/recognition-gateway/internal/domain"
	"github.com/perkhive/recognition-gateway/pkg/pagination"
)

// RecognitionAPI is the surface of the recognition service client the
// review service depends on.
type RecognitionAPI interface {
	List(ctx context.Context, params recognition.ListParams) ([]domain.Review, pagination.Meta, error)
	Create(ctx context.Context, req recognition.CreateReviewRequest) (*domain.Review, error)
	Get(ctx context.Context, reviewID string) (*domain.Review, error)
	Update(ctx context.Context, reviewID string, req recognition.UpdateReviewRequest) (*domain.Review, error)
}

// maxResolvePages bounds the pagination loop. At 100 reviews per page an
// employee would need 1000 reviews in one month to hit it.
const maxResolvePages = 10

// ResolveMonthlyState walks the reviewer's reviews for the current UTC month
// and derives quota state. Errors propagate so callers fail closed: an
// unknown quota never admits a submission.
func ResolveMonthlyState(ctx context.Context, api RecognitionAPI, reviewerID string, now time.Time) (*domain.MonthlyReviewState, error) {
	monthStart := domain.MonthStartUTC(now)

	seen := make(map[string]struct{})
	var receiverIDs []string

	page := 1
	for {
		reviews, meta, err := api.List(ctx, recognition.ListParams{
			ReviewerID:    reviewerID,
			ReviewAtAfter: monthStart,
			Page:          page,
			PageSize:      pagination.MaxPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("resolve monthly state: %w", err)
		}

		for _, review := range reviews {
			// Server-side filters are re-applied locally in case a
			// downstream deployment ignores the query parameters.
			if review.ReviewerID != reviewerID {
				continue
			}
			if review.ReviewAt.Before(monthStart) {
				continue
			}
			if _, ok := seen[review.ReceiverID]; ok {
				continue
			}
			seen[review.ReceiverID] = struct{}{}
			receiverIDs = append(receiverIDs, review.ReceiverID)
		}

		if !meta.HasNext || len(reviews) == 0 {
			break
		}
		page++
		if page > maxResolvePages {
			break
		}
	}

	used := len(receiverIDs)
	remaining := domain.MaxReviewsPerMonth - used
	if remaining < 0 {
		remaining = 0
	}
	if receiverIDs == nil {
		receiverIDs = []string{}
	}

	return &domain.MonthlyReviewState{
		ReviewsUsed:         used,
		ReviewsRemaining:    remaining,
		ReviewedReceiverIDs: receiverIDs,
		CanSubmit:           remaining > 0,
	}, nil
}
