package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/perkhive/recognition-gateway/internal/client/wallet"
	"github.com/perkhive/recognition-gateway/internal/domain"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Enqueue(ctx context.Context, retry *domain.CreditRetry) error {
	return m.Called(ctx, retry).Error(0)
}

func (m *mockRepo) ListPending(ctx context.Context, limit int) ([]domain.CreditRetry, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.CreditRetry), args.Error(1)
}

func (m *mockRepo) MarkCredited(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepo) RecordFailure(ctx context.Context, id string, attemptErr string) error {
	return m.Called(ctx, id, attemptErr).Error(0)
}

type mockWallet struct {
	mock.Mock
}

func (m *mockWallet) CreditFromReview(ctx context.Context, req wallet.CreditFromReviewRequest) error {
	return m.Called(ctx, req).Error(0)
}

func newTestWorker(t *testing.T) (*Worker, *mockRepo, *mockWallet) {
	t.Helper()
	repo := &mockRepo{}
	w := &mockWallet{}
	worker := NewWorker(repo, w, slog.New(slog.NewJSONHandler(io.Discard, nil)), Config{
		Interval:  time.Minute,
		BatchSize: 10,
	})
	return worker, repo, w
}

func pendingRetry(id, reviewID string, points int) domain.CreditRetry {
	return domain.CreditRetry{
		ID:         id,
		ReviewID:   reviewID,
		ReceiverID: "emp-2",
		Points:     points,
		Status:     domain.CreditRetryPending,
		Attempts:   1,
	}
}

func TestProcessBatch_CreditsAndMarks(t *testing.T) {
	worker, repo, w := newTestWorker(t)

	repo.On("ListPending", mock.Anything, 10).
		Return([]domain.CreditRetry{pendingRetry("retry-1", "rev-1", 50)}, nil).Once()

	w.On("CreditFromReview", mock.Anything, wallet.CreditFromReviewRequest{
		ReviewID:   "rev-1",
		ReceiverID: "emp-2",
		Points:     50,
	}).Return(nil).Once()

	repo.On("MarkCredited", mock.Anything, "retry-1").Return(nil).Once()

	worker.ProcessBatch(context.Background())

	repo.AssertExpectations(t)
	w.AssertExpectations(t)
}

func TestProcessBatch_RecordsFailures(t *testing.T) {
	worker, repo, w := newTestWorker(t)

	repo.On("ListPending", mock.Anything, 10).
		Return([]domain.CreditRetry{pendingRetry("retry-1", "rev-1", 20)}, nil).Once()

	w.On("CreditFromReview", mock.Anything, mock.Anything).
		Return(errors.New("wallet service: 503")).Once()

	repo.On("RecordFailure", mock.Anything, "retry-1", "wallet service: 503").Return(nil).Once()

	worker.ProcessBatch(context.Background())

	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "MarkCredited", mock.Anything, mock.Anything)
}

func TestProcessBatch_MixedOutcomes(t *testing.T) {
	worker, repo, w := newTestWorker(t)

	repo.On("ListPending", mock.Anything, 10).Return([]domain.CreditRetry{
		pendingRetry("retry-1", "rev-1", 50),
		pendingRetry("retry-2", "rev-2", 10),
	}, nil).Once()

	w.On("CreditFromReview", mock.Anything, mock.MatchedBy(func(req wallet.CreditFromReviewRequest) bool {
		return req.ReviewID == "rev-1"
	})).Return(nil).Once()
	w.On("CreditFromReview", mock.Anything, mock.MatchedBy(func(req wallet.CreditFromReviewRequest) bool {
		return req.ReviewID == "rev-2"
	})).Return(errors.New("timeout")).Once()

	repo.On("MarkCredited", mock.Anything, "retry-1").Return(nil).Once()
	repo.On("RecordFailure", mock.Anything, "retry-2", "timeout").Return(nil).Once()

	worker.ProcessBatch(context.Background())

	repo.AssertExpectations(t)
	w.AssertExpectations(t)
}

func TestProcessBatch_EmptyQueue(t *testing.T) {
	worker, repo, w := newTestWorker(t)

	repo.On("ListPending", mock.Anything, 10).Return([]domain.CreditRetry{}, nil).Once()

	worker.ProcessBatch(context.Background())

	w.AssertNotCalled(t, "CreditFromReview", mock.Anything, mock.Anything)
}

func TestProcessBatch_ListErrorIsLoggedOnly(t *testing.T) {
	worker, repo, w := newTestWorker(t)

	repo.On("ListPending", mock.Anything, 10).
		Return([]domain.CreditRetry(nil), errors.New("db down")).Once()

	worker.ProcessBatch(context.Background())

	w.AssertNotCalled(t, "CreditFromReview", mock.Anything, mock.Anything)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	worker, repo, _ := newTestWorker(t)
	worker.cfg.Interval = 5 * time.Millisecond

	repo.On("ListPending", mock.Anything, 10).Return([]domain.CreditRetry{}, nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
