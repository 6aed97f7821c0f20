// Package reconcile replays wallet credits that failed during submission.
// Reviews are durable when a credit fails, so the owed points stay queued in
// Postgres until the wallet accepts them or the attempt cap is hit.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/perkhive/recognition-gateway/internal/client/wallet"
	"github.com/perkhive/recognition-gateway/internal/repository"
)

// WalletAPI is the wallet client surface the worker needs.
type WalletAPI interface {
	CreditFromReview(ctx context.Context, req wallet.CreditFromReviewRequest) error
}

// Config controls the reconciliation loop.
type Config struct {
	Interval  time.Duration
	BatchSize int
}

func DefaultConfig() Config {
	return Config{
		Interval:  time.Minute,
		BatchSize: 50,
	}
}

// Worker periodically drains pending credit retries.
type Worker struct {
	repo   repository.CreditRetryRepository
	wallet WalletAPI
	logger *slog.Logger
	cfg    Config
}

func NewWorker(repo repository.CreditRetryRepository, walletAPI WalletAPI, logger *slog.Logger, cfg Config) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Worker{
		repo:   repo,
		wallet: walletAPI,
		logger: logger,
		cfg:    cfg,
	}
}

// Run blocks until the context is cancelled, processing one batch per tick.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.logger.Info("credit reconciliation worker started",
		slog.Duration("interval", w.cfg.Interval),
		slog.Int("batch_size", w.cfg.BatchSize),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("credit reconciliation worker stopped")
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch replays one batch of pending credits. The wallet treats the
// review ID as an idempotency key, so replaying an already-applied credit
// resolves cleanly.
func (w *Worker) ProcessBatch(ctx context.Context) {
	retries, err := w.repo.ListPending(ctx, w.cfg.BatchSize)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to list pending credit retries",
			slog.String("error", err.Error()),
		)
		return
	}

	if len(retries) == 0 {
		return
	}

	var credited, failed int
	for _, retry := range retries {
		err := w.wallet.CreditFromReview(ctx, wallet.CreditFromReviewRequest{
			ReviewID:   retry.ReviewID,
			ReceiverID: retry.ReceiverID,
			Points:     retry.Points,
		})
		if err != nil {
			failed++
			if recErr := w.repo.RecordFailure(ctx, retry.ID, err.Error()); recErr != nil {
				w.logger.ErrorContext(ctx, "failed to record credit retry failure",
					slog.String("retry_id", retry.ID),
					slog.String("error", recErr.Error()),
				)
			}
			continue
		}

		credited++
		if markErr := w.repo.MarkCredited(ctx, retry.ID); markErr != nil {
			w.logger.ErrorContext(ctx, "failed to mark credit retry credited",
				slog.String("retry_id", retry.ID),
				slog.String("error", markErr.Error()),
			)
		}
	}

	w.logger.InfoContext(ctx, "credit reconciliation batch processed",
		slog.Int("credited", credited),
		slog.Int("failed", failed),
	)
}
