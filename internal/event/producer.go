package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/perkhive/recognition-gateway/internal/domain"
	pkgkafka "github.com/perkhive/recognition-gateway/pkg/kafka"
)

// Kafka topic constants for review domain events.
const (
	TopicReviewSubmitted    = "recognition.review.submitted"
	TopicReviewCreditFailed = "recognition.review.credit_failed"
)

// Aggregate type constant.
const AggregateTypeReview = "review"

// Source identifier for events originating from this service.
const SourceRecognitionGateway = "recognition-gateway"

// ReviewSubmittedData is the payload for a review.submitted event.
type ReviewSubmittedData struct {
	ReviewID       string `json:"review_id"`
	ReviewerID     string `json:"reviewer_id"`
	ReceiverID     string `json:"receiver_id"`
	Rating         int    `json:"rating"`
	PointsCredited int    `json:"points_credited"`
	HasImage       bool   `json:"has_image"`
	HasVideo       bool   `json:"has_video"`
}

// ReviewCreditFailedData is the payload for a review.credit_failed event.
type ReviewCreditFailedData struct {
	ReviewID   string `json:"review_id"`
	ReceiverID string `json:"receiver_id"`
	Points     int    `json:"points"`
	Error      string `json:"error"`
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewSubmitted publishes a review.submitted event.
func (p *Producer) PublishReviewSubmitted(ctx context.Context, result *domain.SubmitReviewResult) error {
	review := result.Review

	data := ReviewSubmittedData{
		ReviewID:       review.ID,
		ReviewerID:     review.ReviewerID,
		ReceiverID:     review.ReceiverID,
		Rating:         review.Rating,
		PointsCredited: result.PointsCredited,
		HasImage:       review.ImageURL != nil,
		HasVideo:       review.VideoURL != nil,
	}

	event, err := pkgkafka.NewEvent(TopicReviewSubmitted, review.ID, AggregateTypeReview, SourceRecognitionGateway, data)
	if err != nil {
		return fmt.Errorf("create review.submitted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewSubmitted, event); err != nil {
		return fmt.Errorf("publish review.submitted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.submitted event",
		slog.String("review_id", review.ID),
		slog.String("receiver_id", review.ReceiverID),
	)

	return nil
}

// PublishReviewCreditFailed publishes a review.credit_failed event.
func (p *Producer) PublishReviewCreditFailed(ctx context.Context, review *domain.Review, points int, creditErr string) error {
	data := ReviewCreditFailedData{
		ReviewID:   review.ID,
		ReceiverID: review.ReceiverID,
		Points:     points,
		Error:      creditErr,
	}

	event, err := pkgkafka.NewEvent(TopicReviewCreditFailed, review.ID, AggregateTypeReview, SourceRecognitionGateway, data)
	if err != nil {
		return fmt.Errorf("create review.credit_failed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewCreditFailed, event); err != nil {
		return fmt.Errorf("publish review.credit_failed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.credit_failed event",
		slog.String("review_id", review.ID),
		slog.Int("points", points),
	)

	return nil
}
