package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/perkhive/recognition-gateway/internal/client/recognition"
	"github.com/perkhive/recognition-gateway/internal/client/wallet"
	"github.com/perkhive/recognition-gateway/internal/domain"
	"github.com/perkhive/recognition-gateway/internal/storage"
	"github.com/perkhive/recognition-gateway/internal/storage/memory"
	apperrors "github.com/perkhive/recognition-gateway/pkg/errors"
	"github.com/perkhive/recognition-gateway/pkg/pagination"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockRecognition struct {
	mock.Mock
}

func (m *mockRecognition) List(ctx context.Context, params recognition.ListParams) ([]domain.Review, pagination.Meta, error) {
	args := m.Called(ctx, params)
	return args.Get(0).([]domain.Review), args.Get(1).(pagination.Meta), args.Error(2)
}

func (m *mockRecognition) Create(ctx context.Context, req recognition.CreateReviewRequest) (*domain.Review, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockRecognition) Get(ctx context.Context, reviewID string) (*domain.Review, error) {
	args := m.Called(ctx, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockRecognition) Update(ctx context.Context, reviewID string, req recognition.UpdateReviewRequest) (*domain.Review, error) {
	args := m.Called(ctx, reviewID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

type mockWallet struct {
	mock.Mock
}

func (m *mockWallet) CreditFromReview(ctx context.Context, req wallet.CreditFromReviewRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type mockRetryRepo struct {
	mock.Mock
}

func (m *mockRetryRepo) Enqueue(ctx context.Context, retry *domain.CreditRetry) error {
	args := m.Called(ctx, retry)
	return args.Error(0)
}

func (m *mockRetryRepo) ListPending(ctx context.Context, limit int) ([]domain.CreditRetry, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.CreditRetry), args.Error(1)
}

func (m *mockRetryRepo) MarkCredited(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRetryRepo) RecordFailure(ctx context.Context, id string, attemptErr string) error {
	return m.Called(ctx, id, attemptErr).Error(0)
}

// fakeGuard never blocks; conflictGuard always reports an in-flight submission.
type fakeGuard struct {
	acquired atomic.Int32
	released atomic.Int32
}

func (g *fakeGuard) Acquire(_ context.Context, _ string) error {
	g.acquired.Add(1)
	return nil
}

func (g *fakeGuard) Release(_ context.Context, _ string) error {
	g.released.Add(1)
	return nil
}

type conflictGuard struct{}

func (conflictGuard) Acquire(_ context.Context, _ string) error {
	return apperrors.Conflict("another submission is already in progress")
}

func (conflictGuard) Release(_ context.Context, _ string) error { return nil }

type fakeEvents struct {
	submitted     atomic.Int32
	creditFailed  atomic.Int32
	lastCreditErr string
}

func (e *fakeEvents) PublishReviewSubmitted(_ context.Context, _ *domain.SubmitReviewResult) error {
	e.submitted.Add(1)
	return nil
}

func (e *fakeEvents) PublishReviewCreditFailed(_ context.Context, _ *domain.Review, _ int, creditErr string) error {
	e.creditFailed.Add(1)
	e.lastCreditErr = creditErr
	return nil
}

// countingUploader wraps the memory store and counts uploads. Keys are
// replaced with the filename so tests can trace which file produced a URL.
type countingUploader struct {
	inner   *memory.Storage
	uploads atomic.Int32
}

func newCountingUploader() *countingUploader {
	return &countingUploader{inner: memory.New("https://cdn.test")}
}

func (u *countingUploader) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	u.uploads.Add(1)
	if input.Filename != "" {
		input.Key = input.Filename
	}
	return u.inner.Upload(ctx, input)
}

func (u *countingUploader) Delete(ctx context.Context, key string) error {
	return u.inner.Delete(ctx, key)
}

func (u *countingUploader) GetURL(ctx context.Context, key string) (string, error) {
	return u.inner.GetURL(ctx, key)
}

type failingUploader struct{}

func (failingUploader) Upload(_ context.Context, _ *storage.UploadInput) (*storage.UploadResult, error) {
	return nil, errors.New("blob store unavailable")
}

func (failingUploader) Delete(_ context.Context, _ string) error        { return nil }
func (failingUploader) GetURL(_ context.Context, _ string) (string, error) { return "", nil }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type testDeps struct {
	recognition *mockRecognition
	wallet      *mockWallet
	uploader    *countingUploader
	guard       *fakeGuard
	retryRepo   *mockRetryRepo
	events      *fakeEvents
}

func newTestService(t *testing.T) (*ReviewService, *testDeps) {
	t.Helper()

	deps := &testDeps{
		recognition: &mockRecognition{},
		wallet:      &mockWallet{},
		uploader:    newCountingUploader(),
		guard:       &fakeGuard{},
		retryRepo:   &mockRetryRepo{},
		events:      &fakeEvents{},
	}

	svc := NewReviewService(
		deps.recognition,
		deps.wallet,
		deps.uploader,
		deps.guard,
		deps.retryRepo,
		deps.events,
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
		StepTimeouts{},
	)
	svc.now = func() time.Time {
		return time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)
	}

	return svc, deps
}

func validInput() *domain.NewReviewInput {
	return &domain.NewReviewInput{
		ReviewerID: "emp-1",
		ReceiverID: "emp-9",
		Rating:     5,
		Comment:    "carried the incident response calmly and kept everyone informed",
	}
}

func monthReview(reviewer, receiver string, day int) domain.Review {
	return domain.Review{
		ID:         "rev-" + receiver,
		ReviewerID: reviewer,
		ReceiverID: receiver,
		Rating:     4,
		ReviewAt:   time.Date(2026, time.August, day, 9, 0, 0, 0, time.UTC),
	}
}

// expectList registers one List call returning the given reviews.
func expectList(m *mockRecognition, reviews []domain.Review) {
	m.On("List", mock.Anything, mock.Anything).
		Return(reviews, pagination.Meta{Page: 1, PageSize: 100, HasNext: false}, nil).Once()
}

// ---------------------------------------------------------------------------
// SubmitReview
// ---------------------------------------------------------------------------

func TestSubmitReview_FirstOfMonth(t *testing.T) {
	svc, deps := newTestService(t)

	// Pre-submit resolve: one prior review this month.
	expectList(deps.recognition, []domain.Review{monthReview("emp-1", "emp-2", 3)})

	created := &domain.Review{
		ID:         "rev-new",
		ReviewerID: "emp-1",
		ReceiverID: "emp-9",
		Rating:     5,
		ReviewAt:   time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC),
	}
	deps.recognition.On("Create", mock.Anything, mock.MatchedBy(func(req recognition.CreateReviewRequest) bool {
		return req.ReceiverID == "emp-9" && req.Rating == 5 && req.ImageURL == nil && req.VideoURL == nil
	})).Return(created, nil).Once()

	deps.wallet.On("CreditFromReview", mock.Anything, wallet.CreditFromReviewRequest{
		ReviewID:   "rev-new",
		ReceiverID: "emp-9",
		Points:     50,
	}).Return(nil).Once()

	// Post-submit resolve reflects the new review.
	expectList(deps.recognition, []domain.Review{
		monthReview("emp-1", "emp-2", 3),
		*created,
	})

	result, err := svc.SubmitReview(context.Background(), validInput(), nil)
	require.NoError(t, err)

	assert.Equal(t, "rev-new", result.Review.ID)
	assert.Equal(t, 50, result.PointsCredited)
	assert.True(t, result.WalletCreditSuccess)
	assert.Empty(t, result.WalletCreditError)
	assert.Equal(t, 3, result.ReviewsRemaining)
	assert.Equal(t, int32(1), deps.events.submitted.Load())
	assert.Equal(t, int32(1), deps.guard.released.Load())

	deps.recognition.AssertExpectations(t)
	deps.wallet.AssertExpectations(t)
}

func TestSubmitReview_LowRatingSkipsWallet(t *testing.T) {
	svc, deps := newTestService(t)

	expectList(deps.recognition, nil)

	created := &domain.Review{ID: "rev-low", ReviewerID: "emp-1", ReceiverID: "emp-9", Rating: 2}
	deps.recognition.On("Create", mock.Anything, mock.Anything).Return(created, nil).Once()

	expectList(deps.recognition, []domain.Review{monthReview("emp-1", "emp-9", 15)})

	input := validInput()
	input.Rating = 2

	result, err := svc.SubmitReview(context.Background(), input, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.PointsCredited)
	assert.True(t, result.WalletCreditSuccess)
	assert.Equal(t, 4, result.ReviewsRemaining)

	deps.wallet.AssertNotCalled(t, "CreditFromReview", mock.Anything, mock.Anything)
}

func TestSubmitReview_QuotaExceeded(t *testing.T) {
	svc, deps := newTestService(t)

	expectList(deps.recognition, []domain.Review{
		monthReview("emp-1", "emp-2", 1),
		monthReview("emp-1", "emp-3", 2),
		monthReview("emp-1", "emp-4", 3),
		monthReview("emp-1", "emp-5", 4),
		monthReview("emp-1", "emp-6", 5),
	})

	_, err := svc.SubmitReview(context.Background(), validInput(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrQuotaExceeded)

	deps.recognition.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Equal(t, int32(1), deps.guard.released.Load())
}

func TestSubmitReview_DuplicateReceiverBeforeUpload(t *testing.T) {
	svc, deps := newTestService(t)

	expectList(deps.recognition, []domain.Review{monthReview("emp-1", "emp-9", 4)})

	attachments := []Attachment{
		{Filename: "a.png", ContentType: "image/png", Data: strings.NewReader("x")},
	}

	_, err := svc.SubmitReview(context.Background(), validInput(), attachments)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// Nothing was uploaded for a rejected submission.
	assert.Equal(t, int32(0), deps.uploader.uploads.Load())
	deps.recognition.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitReview_SelfReview(t *testing.T) {
	svc, deps := newTestService(t)

	expectList(deps.recognition, nil)

	input := validInput()
	input.ReceiverID = "emp-1"

	_, err := svc.SubmitReview(context.Background(), input, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	deps.recognition.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitReview_KeepsFirstImageAndFirstVideo(t *testing.T) {
	svc, deps := newTestService(t)

	expectList(deps.recognition, nil)

	var captured recognition.CreateReviewRequest
	created := &domain.Review{ID: "rev-media", ReviewerID: "emp-1", ReceiverID: "emp-9", Rating: 5}
	deps.recognition.On("Create", mock.Anything, mock.MatchedBy(func(req recognition.CreateReviewRequest) bool {
		captured = req
		return true
	})).Return(created, nil).Once()

	deps.wallet.On("CreditFromReview", mock.Anything, mock.Anything).Return(nil).Once()

	expectList(deps.recognition, []domain.Review{monthReview("emp-1", "emp-9", 15)})

	attachments := []Attachment{
		{Filename: "first.png", ContentType: "image/png", Data: strings.NewReader("a")},
		{Filename: "second.png", ContentType: "image/jpeg", Data: strings.NewReader("b")},
		{Filename: "clip.mp4", ContentType: "video/mp4", Data: strings.NewReader("c")},
		{Filename: "notes.pdf", ContentType: "application/pdf", Data: strings.NewReader("d")},
	}

	result, err := svc.SubmitReview(context.Background(), validInput(), attachments)
	require.NoError(t, err)
	require.NotNil(t, result.Review)

	// Every file was uploaded, but only the first image and first video made
	// it onto the review.
	assert.Equal(t, int32(4), deps.uploader.uploads.Load())
	require.NotNil(t, captured.ImageURL)
	require.NotNil(t, captured.VideoURL)
	assert.Contains(t, *captured.ImageURL, "first.png")
	assert.Contains(t, *captured.VideoURL, "clip.mp4")
}

func TestSubmitReview_UploadFailureAborts(t *testing.T) {
	svc, deps := newTestService(t)

	expectList(deps.recognition, nil)

	failing := NewReviewService(
		deps.recognition,
		deps.wallet,
		failingUploader{},
		deps.guard,
		deps.retryRepo,
		deps.events,
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
		StepTimeouts{},
	)
	failing.now = svc.now

	attachments := []Attachment{
		{Filename: "a.png", ContentType: "image/png", Data: strings.NewReader("x")},
	}

	_, err := failing.SubmitReview(context.Background(), validInput(), attachments)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUploadFailed)

	deps.recognition.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// pdfFailingUploader fails only for non-media files.
type pdfFailingUploader struct {
	inner *memory.Storage
}

func (u pdfFailingUploader) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	if input.ContentType == "application/pdf" {
		return nil, errors.New("blob store rejected the object")
	}
	return u.inner.Upload(ctx, input)
}

func (u pdfFailingUploader) Delete(ctx context.Context, key string) error { return u.inner.Delete(ctx, key) }
func (u pdfFailingUploader) GetURL(ctx context.Context, key string) (string, error) {
	return u.inner.GetURL(ctx, key)
}

func TestSubmitReview_NonMediaUploadFailureAborts(t *testing.T) {
	svc, deps := newTestService(t)

	expectList(deps.recognition, nil)

	failing := NewReviewService(
		deps.recognition,
		deps.wallet,
		pdfFailingUploader{inner: memory.New("https://cdn.test")},
		deps.guard,
		deps.retryRepo,
		deps.events,
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
		StepTimeouts{},
	)
	failing.now = svc.now

	// A failure on any attached file aborts, even one that would never land
	// on the review.
	attachments := []Attachment{
		{Filename: "a.png", ContentType: "image/png", Data: strings.NewReader("x")},
		{Filename: "notes.pdf", ContentType: "application/pdf", Data: strings.NewReader("y")},
	}

	_, err := failing.SubmitReview(context.Background(), validInput(), attachments)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUploadFailed)

	deps.recognition.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitReview_WalletFailureDegradesResult(t *testing.T) {
	svc, deps := newTestService(t)

	expectList(deps.recognition, nil)

	created := &domain.Review{ID: "rev-degraded", ReviewerID: "emp-1", ReceiverID: "emp-9", Rating: 5}
	deps.recognition.On("Create", mock.Anything, mock.Anything).Return(created, nil).Once()

	deps.wallet.On("CreditFromReview", mock.Anything, mock.Anything).
		Return(errors.New("wallet service: 500")).Once()

	deps.retryRepo.On("Enqueue", mock.Anything, mock.MatchedBy(func(r *domain.CreditRetry) bool {
		return r.ReviewID == "rev-degraded" && r.Points == 50 && r.Status == domain.CreditRetryPending
	})).Return(nil).Once()

	expectList(deps.recognition, []domain.Review{monthReview("emp-1", "emp-9", 15)})

	result, err := svc.SubmitReview(context.Background(), validInput(), nil)
	require.NoError(t, err)

	assert.Equal(t, "rev-degraded", result.Review.ID)
	assert.Equal(t, 50, result.PointsCredited)
	assert.False(t, result.WalletCreditSuccess)
	assert.Contains(t, result.WalletCreditError, "wallet service: 500")
	assert.Equal(t, 4, result.ReviewsRemaining)
	assert.Equal(t, int32(1), deps.events.creditFailed.Load())
	assert.Equal(t, int32(1), deps.events.submitted.Load())

	deps.retryRepo.AssertExpectations(t)
}

func TestSubmitReview_QuotaResolveFailureIsFailClosed(t *testing.T) {
	svc, deps := newTestService(t)

	deps.recognition.On("List", mock.Anything, mock.Anything).
		Return([]domain.Review(nil), pagination.Meta{}, errors.New("recognition down")).Once()

	_, err := svc.SubmitReview(context.Background(), validInput(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)

	deps.recognition.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmitReview_RefreshFailureFallsBackToLocalCount(t *testing.T) {
	svc, deps := newTestService(t)

	// Pre-submit resolve succeeds with two prior reviews.
	expectList(deps.recognition, []domain.Review{
		monthReview("emp-1", "emp-2", 1),
		monthReview("emp-1", "emp-3", 2),
	})

	created := &domain.Review{ID: "rev-x", ReviewerID: "emp-1", ReceiverID: "emp-9", Rating: 4}
	deps.recognition.On("Create", mock.Anything, mock.Anything).Return(created, nil).Once()
	deps.wallet.On("CreditFromReview", mock.Anything, mock.Anything).Return(nil).Once()

	// Post-submit refresh fails.
	deps.recognition.On("List", mock.Anything, mock.Anything).
		Return([]domain.Review(nil), pagination.Meta{}, errors.New("timeout")).Once()

	input := validInput()
	input.Rating = 4

	result, err := svc.SubmitReview(context.Background(), input, nil)
	require.NoError(t, err)

	// Pre-submit remaining was 3; the fallback subtracts the new review.
	assert.Equal(t, 2, result.ReviewsRemaining)
}

func TestSubmitReview_GuardConflict(t *testing.T) {
	svc, deps := newTestService(t)

	blocked := NewReviewService(
		deps.recognition,
		deps.wallet,
		deps.uploader,
		conflictGuard{},
		deps.retryRepo,
		deps.events,
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
		StepTimeouts{},
	)
	blocked.now = svc.now

	_, err := blocked.SubmitReview(context.Background(), validInput(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	deps.recognition.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestSubmitReview_MissingIdentity(t *testing.T) {
	svc, _ := newTestService(t)

	input := validInput()
	input.ReviewerID = ""

	_, err := svc.SubmitReview(context.Background(), input, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

// ---------------------------------------------------------------------------
// Points table
// ---------------------------------------------------------------------------

func TestSubmitReview_PointsPerRating(t *testing.T) {
	tests := []struct {
		rating       int
		points       int
		walletCalled bool
	}{
		{1, 0, false},
		{2, 0, false},
		{3, 10, true},
		{4, 20, true},
		{5, 50, true},
	}

	for _, tt := range tests {
		svc, deps := newTestService(t)

		expectList(deps.recognition, nil)

		created := &domain.Review{ID: "rev-p", ReviewerID: "emp-1", ReceiverID: "emp-9", Rating: tt.rating}
		deps.recognition.On("Create", mock.Anything, mock.Anything).Return(created, nil).Once()

		if tt.walletCalled {
			deps.wallet.On("CreditFromReview", mock.Anything, mock.MatchedBy(func(req wallet.CreditFromReviewRequest) bool {
				return req.Points == tt.points
			})).Return(nil).Once()
		}

		expectList(deps.recognition, []domain.Review{monthReview("emp-1", "emp-9", 15)})

		input := validInput()
		input.Rating = tt.rating

		result, err := svc.SubmitReview(context.Background(), input, nil)
		require.NoError(t, err, "rating %d", tt.rating)
		assert.Equal(t, tt.points, result.PointsCredited, "rating %d", tt.rating)

		if !tt.walletCalled {
			deps.wallet.AssertNotCalled(t, "CreditFromReview", mock.Anything, mock.Anything)
		}
		deps.wallet.AssertExpectations(t)
	}
}

// ---------------------------------------------------------------------------
// Other operations
// ---------------------------------------------------------------------------

func TestGetMonthlyState(t *testing.T) {
	svc, deps := newTestService(t)

	expectList(deps.recognition, []domain.Review{
		monthReview("emp-1", "emp-2", 1),
		monthReview("emp-1", "emp-3", 2),
	})

	state, err := svc.GetMonthlyState(context.Background(), "emp-1")
	require.NoError(t, err)

	assert.Equal(t, 2, state.ReviewsUsed)
	assert.Equal(t, 3, state.ReviewsRemaining)
	assert.True(t, state.CanSubmit)
	assert.ElementsMatch(t, []string{"emp-2", "emp-3"}, state.ReviewedReceiverIDs)
}

func TestListReviews(t *testing.T) {
	svc, deps := newTestService(t)

	deps.recognition.On("List", mock.Anything, mock.MatchedBy(func(p recognition.ListParams) bool {
		return p.ReviewerID == "emp-1" && p.Page == 2 && p.PageSize == 20
	})).Return([]domain.Review{monthReview("emp-1", "emp-2", 3)}, pagination.Meta{Page: 2, PageSize: 20}, nil).Once()

	reviews, meta, err := svc.ListReviews(context.Background(), "emp-1", pagination.Params{Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
	assert.Equal(t, 2, meta.Page)
}

func TestUpdateReview_OwnershipEnforced(t *testing.T) {
	svc, deps := newTestService(t)

	deps.recognition.On("Get", mock.Anything, "rev-1").
		Return(&domain.Review{ID: "rev-1", ReviewerID: "someone-else"}, nil).Once()

	_, err := svc.UpdateReview(context.Background(), &domain.UpdateReviewInput{
		ReviewerID: "emp-1",
		ReviewID:   "rev-1",
		Rating:     4,
		Comment:    "revised after release retro",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	deps.recognition.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateReview_Success(t *testing.T) {
	svc, deps := newTestService(t)

	deps.recognition.On("Get", mock.Anything, "rev-1").
		Return(&domain.Review{ID: "rev-1", ReviewerID: "emp-1", Rating: 5}, nil).Once()
	deps.recognition.On("Update", mock.Anything, "rev-1", recognition.UpdateReviewRequest{
		Rating:  4,
		Comment: "revised after release retro",
	}).Return(&domain.Review{ID: "rev-1", ReviewerID: "emp-1", Rating: 4}, nil).Once()

	updated, err := svc.UpdateReview(context.Background(), &domain.UpdateReviewInput{
		ReviewerID: "emp-1",
		ReviewID:   "rev-1",
		Rating:     4,
		Comment:    "revised after release retro",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Rating)
}
