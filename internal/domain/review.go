package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/perkhive/recognition-gateway/pkg/errors"
)

// MaxReviewsPerMonth is the number of distinct coworkers an employee may
// review in one UTC calendar month.
const MaxReviewsPerMonth = 5

// Comment length bounds apply to the trimmed comment.
const (
	MinCommentLength = 10
	MaxCommentLength = 2000
)

// pointsForRating maps a star rating to the wallet points credited to the
// receiver. Ratings below 3 earn nothing.
var pointsForRating = map[int]int{
	1: 0,
	2: 0,
	3: 10,
	4: 20,
	5: 50,
}

// PointsForRating returns the wallet credit for a rating. Unknown ratings
// earn zero; validity is enforced separately.
func PointsForRating(rating int) int {
	return pointsForRating[rating]
}

// Review is the canonical review record as exposed by the recognition
// service. Media URLs are null until an attachment of that kind exists.
type Review struct {
	ID         string    `json:"review_id"`
	ReviewerID string    `json:"reviewer_id"`
	ReceiverID string    `json:"receiver_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	ImageURL   *string   `json:"image_url"`
	VideoURL   *string   `json:"video_url"`
	StatusID   string    `json:"status_id"`
	ReviewAt   time.Time `json:"review_at"`
	CreatedAt  time.Time `json:"created_at"`
	CreatedBy  string    `json:"created_by"`
	UpdatedAt  time.Time `json:"updated_at"`
	UpdatedBy  string    `json:"updated_by"`
}

// MonthlyReviewState summarizes an employee's quota consumption for the
// current UTC month.
type MonthlyReviewState struct {
	ReviewsUsed         int      `json:"reviews_used"`
	ReviewsRemaining    int      `json:"reviews_remaining"`
	ReviewedReceiverIDs []string `json:"reviewed_receiver_ids"`
	CanSubmit           bool     `json:"can_submit"`
}

// HasReviewed reports whether the receiver was already reviewed this month.
func (s *MonthlyReviewState) HasReviewed(receiverID string) bool {
	for _, id := range s.ReviewedReceiverIDs {
		if id == receiverID {
			return true
		}
	}
	return false
}

// MonthStartUTC returns midnight on the first day of t's month in UTC.
// Quota windows are computed in UTC regardless of the caller's zone.
func MonthStartUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NewReviewInput is a validated submission before any network calls.
type NewReviewInput struct {
	ReviewerID string
	ReceiverID string
	Rating     int
	Comment    string
}

// Validate normalizes and checks the input. The comment is trimmed in place
// so downstream layers always see the normalized form.
func (in *NewReviewInput) Validate() error {
	if in.ReviewerID == "" {
		return apperrors.Unauthorized("reviewer identity is required")
	}
	if in.ReceiverID == "" {
		return apperrors.InvalidInput("receiver_id is required")
	}
	if in.ReceiverID == in.ReviewerID {
		return apperrors.InvalidInput("you cannot review yourself")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return apperrors.InvalidInput("rating must be an integer between 1 and 5")
	}

	in.Comment = strings.TrimSpace(in.Comment)
	length := utf8.RuneCountInString(in.Comment)
	if length < MinCommentLength {
		return apperrors.InvalidInput("comment must be at least 10 characters")
	}
	if length > MaxCommentLength {
		return apperrors.InvalidInput("comment must be at most 2000 characters")
	}

	return nil
}

// UpdateReviewInput carries the editable fields of an existing review.
type UpdateReviewInput struct {
	ReviewerID string
	ReviewID   string
	Rating     int
	Comment    string
}

func (in *UpdateReviewInput) Validate() error {
	if in.ReviewerID == "" {
		return apperrors.Unauthorized("reviewer identity is required")
	}
	if in.ReviewID == "" {
		return apperrors.InvalidInput("review id is required")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return apperrors.InvalidInput("rating must be an integer between 1 and 5")
	}

	in.Comment = strings.TrimSpace(in.Comment)
	length := utf8.RuneCountInString(in.Comment)
	if length < MinCommentLength {
		return apperrors.InvalidInput("comment must be at least 10 characters")
	}
	if length > MaxCommentLength {
		return apperrors.InvalidInput("comment must be at most 2000 characters")
	}

	return nil
}

// AttachmentKind classifies an upload by the primary MIME category.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentVideo AttachmentKind = "video"
	AttachmentOther AttachmentKind = "other"
)

// KindFromContentType derives the attachment kind from a MIME type such as
// "image/png" or "video/mp4; codecs=avc1".
func KindFromContentType(contentType string) AttachmentKind {
	primary, _, _ := strings.Cut(contentType, "/")
	switch strings.ToLower(strings.TrimSpace(primary)) {
	case "image":
		return AttachmentImage
	case "video":
		return AttachmentVideo
	default:
		return AttachmentOther
	}
}

// SubmitReviewResult is the two-phase outcome of a submission. The review is
// durable once present; the wallet credit may have failed independently and
// is reported, never raised.
type SubmitReviewResult struct {
	Review              *Review `json:"review"`
	PointsCredited      int     `json:"points_credited"`
	WalletCreditSuccess bool    `json:"wallet_credit_success"`
	WalletCreditError   string  `json:"wallet_credit_error,omitempty"`
	ReviewsRemaining    int     `json:"reviews_remaining"`
}
