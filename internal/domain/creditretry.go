package domain

import "time"

// CreditRetryStatus tracks the lifecycle of a failed wallet credit.
type CreditRetryStatus string

const (
	CreditRetryPending   CreditRetryStatus = "pending"
	CreditRetryCredited  CreditRetryStatus = "credited"
	CreditRetryExhausted CreditRetryStatus = "exhausted"
)

// MaxCreditAttempts bounds reconciliation retries per review.
const MaxCreditAttempts = 10

// CreditRetry is a wallet credit that failed during submission and awaits
// reconciliation. The review is already durable; only the credit is owed.
type CreditRetry struct {
	ID         string            `json:"id"`
	ReviewID   string            `json:"review_id"`
	ReceiverID string            `json:"receiver_id"`
	Points     int               `json:"points"`
	Status     CreditRetryStatus `json:"status"`
	Attempts   int               `json:"attempts"`
	LastError  string            `json:"last_error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}
