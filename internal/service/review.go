package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/perkhive/recognition-gateway/internal/client/recognition"
	"github.com/perkhive/recognition-gateway/internal/client/wallet"
	"github.com/perkhive/recognition-gateway/internal/domain"
	"github.com/perkhive/recognition-gateway/internal/repository"
	"github.com/perkhive/recognition-gateway/internal/storage"
	apperrors "github.com/perkhive/recognition-gateway/pkg/errors"
	"github.com/perkhive/recognition-gateway/pkg/pagination"
)

// WalletAPI is the surface of the wallet service client the review service
// depends on.
type WalletAPI interface {
	CreditFromReview(ctx context.Context, req wallet.CreditFromReviewRequest) error
}

// SubmissionGuard serializes concurrent submissions per reviewer.
type SubmissionGuard interface {
	Acquire(ctx context.Context, reviewerID string) error
	Release(ctx context.Context, reviewerID string) error
}

// EventPublisher emits review domain events. Publishing is best effort;
// failures are logged, never surfaced.
type EventPublisher interface {
	PublishReviewSubmitted(ctx context.Context, result *domain.SubmitReviewResult) error
	PublishReviewCreditFailed(ctx context.Context, review *domain.Review, points int, creditErr string) error
}

// StepTimeouts holds per-step timeout configuration for the submission
// sequence. A zero value means no per-step timeout.
type StepTimeouts struct {
	ResolveTimeout time.Duration
	UploadTimeout  time.Duration
	CreateTimeout  time.Duration
	CreditTimeout  time.Duration
}

// Attachment is a media file accompanying a review submission.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// ReviewService orchestrates review submission across the recognition,
// wallet, and media services.
type ReviewService struct {
	recognition RecognitionAPI
	wallet      WalletAPI
	uploader    storage.Storage
	guard       SubmissionGuard
	retryRepo   repository.CreditRetryRepository
	events      EventPublisher
	logger      *slog.Logger
	timeouts    StepTimeouts
	now         func() time.Time
}

// NewReviewService creates the review orchestrator.
func NewReviewService(
	recognitionAPI RecognitionAPI,
	walletAPI WalletAPI,
	uploader storage.Storage,
	guard SubmissionGuard,
	retryRepo repository.CreditRetryRepository,
	events EventPublisher,
	logger *slog.Logger,
	timeouts StepTimeouts,
) *ReviewService {
	return &ReviewService{
		recognition: recognitionAPI,
		wallet:      walletAPI,
		uploader:    uploader,
		guard:       guard,
		retryRepo:   retryRepo,
		events:      events,
		logger:      logger,
		timeouts:    timeouts,
		now:         time.Now,
	}
}

// SubmitReview runs the full submission sequence. The returned result is
// two-phase: once the review exists it is returned even when the wallet
// credit fails, with the credit outcome reported alongside.
func (s *ReviewService) SubmitReview(ctx context.Context, input *domain.NewReviewInput, attachments []Attachment) (*domain.SubmitReviewResult, error) {
	if input == nil {
		return nil, apperrors.InvalidInput("review input is required")
	}
	if input.ReviewerID == "" {
		return nil, apperrors.Unauthorized("reviewer identity is required")
	}

	if err := s.guard.Acquire(ctx, input.ReviewerID); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.guard.Release(ctx, input.ReviewerID); err != nil {
			s.logger.WarnContext(ctx, "failed to release submission lock",
				slog.String("reviewer_id", input.ReviewerID),
				slog.String("error", err.Error()),
			)
		}
	}()

	now := s.now()

	state, err := s.resolveState(ctx, input.ReviewerID, now)
	if err != nil {
		// Unknown quota never admits a submission.
		return nil, apperrors.ServiceUnavailable("unable to verify monthly review quota, please retry")
	}

	if !state.CanSubmit {
		return nil, apperrors.QuotaExceeded(fmt.Sprintf("monthly limit of %d reviews reached, the quota resets on the 1st of next month", domain.MaxReviewsPerMonth))
	}

	if state.HasReviewed(input.ReceiverID) {
		return nil, apperrors.Conflict("you have already reviewed this coworker this month")
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	imageURL, videoURL, err := s.uploadAttachments(ctx, attachments)
	if err != nil {
		return nil, err
	}

	review, err := s.createReview(ctx, input, imageURL, videoURL)
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	result := &domain.SubmitReviewResult{
		Review:              review,
		PointsCredited:      domain.PointsForRating(input.Rating),
		WalletCreditSuccess: true,
	}

	// The review is durable from here on. Credit and state refresh failures
	// degrade the result, never fail the submission. Ratings worth zero
	// points skip the wallet call entirely.
	if result.PointsCredited > 0 {
		if err := s.creditWallet(ctx, review, result.PointsCredited); err != nil {
			result.WalletCreditSuccess = false
			result.WalletCreditError = err.Error()

			s.logger.ErrorContext(ctx, "wallet credit failed, queued for reconciliation",
				slog.String("review_id", review.ID),
				slog.Int("points", result.PointsCredited),
				slog.String("error", err.Error()),
			)

			s.enqueueCreditRetry(ctx, review, result.PointsCredited, err)

			if pubErr := s.events.PublishReviewCreditFailed(ctx, review, result.PointsCredited, err.Error()); pubErr != nil {
				s.logger.ErrorContext(ctx, "failed to publish review.credit_failed event",
					slog.String("review_id", review.ID),
					slog.String("error", pubErr.Error()),
				)
			}
		}
	}

	result.ReviewsRemaining = s.remainingAfterSubmit(ctx, input.ReviewerID, state, now)

	if err := s.events.PublishReviewSubmitted(ctx, result); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.submitted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("reviewer_id", input.ReviewerID),
		slog.String("receiver_id", input.ReceiverID),
		slog.Int("rating", input.Rating),
		slog.Int("points_credited", result.PointsCredited),
		slog.Bool("wallet_credit_success", result.WalletCreditSuccess),
		slog.Int("reviews_remaining", result.ReviewsRemaining),
	)

	return result, nil
}

// GetMonthlyState returns the reviewer's quota state for the current month.
func (s *ReviewService) GetMonthlyState(ctx context.Context, reviewerID string) (*domain.MonthlyReviewState, error) {
	if reviewerID == "" {
		return nil, apperrors.Unauthorized("reviewer identity is required")
	}
	return s.resolveState(ctx, reviewerID, s.now())
}

// ListReviews proxies the paginated review listing, scoped to the reviewer.
func (s *ReviewService) ListReviews(ctx context.Context, reviewerID string, params pagination.Params) ([]domain.Review, pagination.Meta, error) {
	if reviewerID == "" {
		return nil, pagination.Meta{}, apperrors.Unauthorized("reviewer identity is required")
	}

	reviews, meta, err := s.recognition.List(ctx, recognition.ListParams{
		ReviewerID: reviewerID,
		Page:       params.Page,
		PageSize:   params.PageSize,
	})
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, meta, nil
}

// GetReview fetches a single review.
func (s *ReviewService) GetReview(ctx context.Context, reviewID string) (*domain.Review, error) {
	if reviewID == "" {
		return nil, apperrors.InvalidInput("review id is required")
	}

	review, err := s.recognition.Get(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}

	return review, nil
}

// UpdateReview edits the rating and comment of a review owned by the caller.
// Points already credited are not adjusted retroactively.
func (s *ReviewService) UpdateReview(ctx context.Context, input *domain.UpdateReviewInput) (*domain.Review, error) {
	if input == nil {
		return nil, apperrors.InvalidInput("update input is required")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.recognition.Get(ctx, input.ReviewID)
	if err != nil {
		return nil, fmt.Errorf("get review for update: %w", err)
	}

	if existing.ReviewerID != input.ReviewerID {
		return nil, apperrors.Forbidden("you can only edit your own reviews")
	}

	updated, err := s.recognition.Update(ctx, input.ReviewID, recognition.UpdateReviewRequest{
		Rating:  input.Rating,
		Comment: input.Comment,
	})
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.logger.InfoContext(ctx, "review updated",
		slog.String("review_id", input.ReviewID),
		slog.String("reviewer_id", input.ReviewerID),
	)

	return updated, nil
}

func (s *ReviewService) resolveState(ctx context.Context, reviewerID string, now time.Time) (*domain.MonthlyReviewState, error) {
	if s.timeouts.ResolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeouts.ResolveTimeout)
		defer cancel()
	}
	return ResolveMonthlyState(ctx, s.recognition, reviewerID, now)
}

// uploadAttachments uploads every attached file concurrently. Only the first
// image URL and first video URL (by input order) end up on the review; other
// uploads are discarded after completion. Any single failure aborts the
// submission.
func (s *ReviewService) uploadAttachments(ctx context.Context, attachments []Attachment) (*string, *string, error) {
	if len(attachments) == 0 {
		return nil, nil, nil
	}

	if s.timeouts.UploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeouts.UploadTimeout)
		defer cancel()
	}

	urls := make([]string, len(attachments))

	g, gctx := errgroup.WithContext(ctx)
	for i := range attachments {
		g.Go(func() error {
			url, err := s.uploadOne(gctx, &attachments[i])
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, apperrors.UploadFailed(fmt.Sprintf("attachment upload failed: %v", err))
	}

	var imageURL, videoURL *string
	for i := range attachments {
		switch domain.KindFromContentType(attachments[i].ContentType) {
		case domain.AttachmentImage:
			if imageURL == nil {
				imageURL = &urls[i]
			}
		case domain.AttachmentVideo:
			if videoURL == nil {
				videoURL = &urls[i]
			}
		}
	}

	return imageURL, videoURL, nil
}

func (s *ReviewService) uploadOne(ctx context.Context, att *Attachment) (string, error) {
	result, err := s.uploader.Upload(ctx, &storage.UploadInput{
		Key:         uuid.New().String(),
		Filename:    att.Filename,
		ContentType: att.ContentType,
		Size:        att.Size,
		Data:        att.Data,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", att.Filename, err)
	}
	return result.URL, nil
}

func (s *ReviewService) createReview(ctx context.Context, input *domain.NewReviewInput, imageURL, videoURL *string) (*domain.Review, error) {
	if s.timeouts.CreateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeouts.CreateTimeout)
		defer cancel()
	}

	return s.recognition.Create(ctx, recognition.CreateReviewRequest{
		ReviewerID: input.ReviewerID,
		ReceiverID: input.ReceiverID,
		Rating:     input.Rating,
		Comment:    input.Comment,
		ImageURL:   imageURL,
		VideoURL:   videoURL,
	})
}

func (s *ReviewService) creditWallet(ctx context.Context, review *domain.Review, points int) error {
	if s.timeouts.CreditTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeouts.CreditTimeout)
		defer cancel()
	}

	return s.wallet.CreditFromReview(ctx, wallet.CreditFromReviewRequest{
		ReviewID:   review.ID,
		ReceiverID: review.ReceiverID,
		Points:     points,
	})
}

func (s *ReviewService) enqueueCreditRetry(ctx context.Context, review *domain.Review, points int, creditErr error) {
	if s.retryRepo == nil {
		return
	}

	now := s.now().UTC()
	retry := &domain.CreditRetry{
		ID:         uuid.New().String(),
		ReviewID:   review.ID,
		ReceiverID: review.ReceiverID,
		Points:     points,
		Status:     domain.CreditRetryPending,
		Attempts:   1,
		LastError:  creditErr.Error(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.retryRepo.Enqueue(ctx, retry); err != nil {
		s.logger.ErrorContext(ctx, "failed to enqueue credit retry",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}
}

// remainingAfterSubmit re-resolves the quota so the response reflects the
// just-created review. When the refresh fails the pre-submit state minus one
// is reported instead.
func (s *ReviewService) remainingAfterSubmit(ctx context.Context, reviewerID string, preState *domain.MonthlyReviewState, now time.Time) int {
	state, err := s.resolveState(ctx, reviewerID, now)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to refresh quota state after submit",
			slog.String("reviewer_id", reviewerID),
			slog.String("error", err.Error()),
		)
		remaining := preState.ReviewsRemaining - 1
		if remaining < 0 {
			remaining = 0
		}
		return remaining
	}
	return state.ReviewsRemaining
}
