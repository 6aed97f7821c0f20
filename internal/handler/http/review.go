package http

import (
	"encoding/json"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/perkhive/recognition-gateway/internal/domain"
	"github.com/perkhive/recognition-gateway/internal/service"
	apperrors "github.com/perkhive/recognition-gateway/pkg/errors"
	"github.com/perkhive/recognition-gateway/pkg/httputil"
	"github.com/perkhive/recognition-gateway/pkg/middleware"
	"github.com/perkhive/recognition-gateway/pkg/pagination"
	"github.com/perkhive/recognition-gateway/pkg/validator"
)

// maxSubmissionBytes caps a multipart submission, attachments included.
const maxSubmissionBytes = 64 << 20 // 64MB

// maxJSONBytes caps a plain JSON body.
const maxJSONBytes = 1 << 20 // 1MB

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// SubmitReviewRequest is the body for submitting a review. In multipart
// requests the same fields arrive as form values alongside attachments.
type SubmitReviewRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	Rating     int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment    string `json:"comment" validate:"required,min=10,max=2000"`
}

// UpdateReviewRequest is the body for editing a review.
type UpdateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"required,min=10,max=2000"`
}

// --- Handlers ---

// SubmitReview handles POST /api/v1/reviews. It accepts either JSON or
// multipart/form-data; attachments are only possible with the latter.
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	reviewerID := middleware.EmployeeIDFromContext(r.Context())
	if reviewerID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		req         SubmitReviewRequest
		attachments []service.Attachment
		closeFiles  func()
	)

	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxSubmissionBytes)

		parsed, files, cleanup, err := parseMultipartSubmission(r)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()},
			})
			return
		}
		req = parsed
		attachments = files
		closeFiles = cleanup
		defer closeFiles()
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
			})
			return
		}
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &domain.NewReviewInput{
		ReviewerID: reviewerID,
		ReceiverID: req.ReceiverID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}

	result, err := h.service.SubmitReview(r.Context(), input, attachments)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: result})
}

// ListReviews handles GET /api/v1/reviews.
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviewerID := middleware.EmployeeIDFromContext(r.Context())
	if reviewerID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	params := pagination.FromRequest(r)

	reviews, meta, err := h.service.ListReviews(r.Context(), reviewerID, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(reviews, meta))
}

// GetReview handles GET /api/v1/reviews/{id}.
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "id")

	review, err := h.service.GetReview(r.Context(), reviewID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// UpdateReview handles PUT /api/v1/reviews/{id}.
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	reviewerID := middleware.EmployeeIDFromContext(r.Context())
	if reviewerID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)

	var req UpdateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.service.UpdateReview(r.Context(), &domain.UpdateReviewInput{
		ReviewerID: reviewerID,
		ReviewID:   chi.URLParam(r, "id"),
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// GetQuota handles GET /api/v1/reviews/quota.
func (h *ReviewHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	reviewerID := middleware.EmployeeIDFromContext(r.Context())
	if reviewerID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), h.logger)
		return
	}

	state, err := h.service.GetMonthlyState(r.Context(), reviewerID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: state})
}

// parseMultipartSubmission extracts the review fields and attachment files
// from a multipart form. The returned cleanup closes all opened files.
func parseMultipartSubmission(r *http.Request) (SubmitReviewRequest, []service.Attachment, func(), error) {
	var req SubmitReviewRequest

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return req, nil, nil, apperrors.InvalidInput("invalid multipart form: " + err.Error())
	}

	req.ReceiverID = strings.TrimSpace(r.FormValue("receiver_id"))
	req.Comment = r.FormValue("comment")

	ratingRaw := strings.TrimSpace(r.FormValue("rating"))
	rating, err := strconv.Atoi(ratingRaw)
	if err != nil {
		return req, nil, nil, apperrors.InvalidInput("rating must be an integer between 1 and 5")
	}
	req.Rating = rating

	var (
		attachments []service.Attachment
		opened      []multipart.File
	)
	cleanup := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["attachments"] {
			file, err := header.Open()
			if err != nil {
				cleanup()
				return req, nil, nil, apperrors.InvalidInput("unable to read attachment " + header.Filename)
			}
			opened = append(opened, file)
			attachments = append(attachments, service.Attachment{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
				Data:        file,
			})
		}
	}

	return req, attachments, cleanup, nil
}
