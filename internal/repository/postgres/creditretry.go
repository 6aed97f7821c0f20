package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/perkhive/recognition-gateway/internal/domain"
	"github.com/perkhive/recognition-gateway/pkg/database"
	apperrors "github.com/perkhive/recognition-gateway/pkg/errors"
)

// CreditRetryRepository implements repository.CreditRetryRepository using
// PostgreSQL.
type CreditRetryRepository struct {
	db database.DBTX
}

// NewCreditRetryRepository creates a new PostgreSQL-backed retry repository.
func NewCreditRetryRepository(db database.DBTX) *CreditRetryRepository {
	return &CreditRetryRepository{db: db}
}

// Enqueue records a failed credit. The review ID is unique; replays of the
// same failure keep the original pending row.
func (r *CreditRetryRepository) Enqueue(ctx context.Context, retry *domain.CreditRetry) error {
	query := `
		INSERT INTO credit_retries (
			id, review_id, receiver_id, points, status, attempts, last_error, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (review_id) DO NOTHING`

	_, err := r.db.Exec(ctx, query,
		retry.ID,
		retry.ReviewID,
		retry.ReceiverID,
		retry.Points,
		retry.Status,
		retry.Attempts,
		nullableString(retry.LastError),
		retry.CreatedAt,
		retry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert credit retry: %w", err)
	}

	return nil
}

// ListPending returns pending retries ordered oldest first.
func (r *CreditRetryRepository) ListPending(ctx context.Context, limit int) ([]domain.CreditRetry, error) {
	query := `
		SELECT id, review_id, receiver_id, points, status, attempts, last_error, created_at, updated_at
		FROM credit_retries
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending credit retries: %w", err)
	}
	defer rows.Close()

	var retries []domain.CreditRetry
	for rows.Next() {
		var (
			retry     domain.CreditRetry
			lastError *string
		)
		if err := rows.Scan(
			&retry.ID,
			&retry.ReviewID,
			&retry.ReceiverID,
			&retry.Points,
			&retry.Status,
			&retry.Attempts,
			&lastError,
			&retry.CreatedAt,
			&retry.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan credit retry row: %w", err)
		}
		if lastError != nil {
			retry.LastError = *lastError
		}
		retries = append(retries, retry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credit retry rows: %w", err)
	}

	if retries == nil {
		retries = []domain.CreditRetry{}
	}

	return retries, nil
}

// MarkCredited transitions a retry to credited.
func (r *CreditRetryRepository) MarkCredited(ctx context.Context, id string) error {
	query := `
		UPDATE credit_retries
		SET status = 'credited', updated_at = $1
		WHERE id = $2 AND status = 'pending'`

	ct, err := r.db.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark credit retry credited: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("credit_retry", id)
	}

	return nil
}

// RecordFailure increments the attempt count; retries at the attempt cap
// transition to exhausted and leave the reconciliation loop.
func (r *CreditRetryRepository) RecordFailure(ctx context.Context, id string, attemptErr string) error {
	query := `
		UPDATE credit_retries
		SET attempts = attempts + 1,
			last_error = $1,
			status = CASE WHEN attempts + 1 >= $2 THEN 'exhausted' ELSE status END,
			updated_at = $3
		WHERE id = $4 AND status = 'pending'`

	ct, err := r.db.Exec(ctx, query, attemptErr, domain.MaxCreditAttempts, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("record credit retry failure: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("credit_retry", id)
	}

	return nil
}

// GetByReviewID returns the retry row for a review.
func (r *CreditRetryRepository) GetByReviewID(ctx context.Context, reviewID string) (*domain.CreditRetry, error) {
	query := `
		SELECT id, review_id, receiver_id, points, status, attempts, last_error, created_at, updated_at
		FROM credit_retries
		WHERE review_id = $1`

	var (
		retry     domain.CreditRetry
		lastError *string
	)
	err := r.db.QueryRow(ctx, query, reviewID).Scan(
		&retry.ID,
		&retry.ReviewID,
		&retry.ReceiverID,
		&retry.Points,
		&retry.Status,
		&retry.Attempts,
		&lastError,
		&retry.CreatedAt,
		&retry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan credit retry: %w", err)
	}
	if lastError != nil {
		retry.LastError = *lastError
	}

	return &retry, nil
}

// nullableString returns nil if the string is empty, otherwise a pointer to the string.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
