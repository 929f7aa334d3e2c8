package ports

import (
	"context"
	"time"

	"github.com/dinedorm/server/internal/core/domain"
)

// RecordPaymentInput carries a completed purchase reported by the client
// after the gateway confirmed the charge.
type RecordPaymentInput struct {
	Email          string
	Amount         float64
	Badge          string
	TransactionID  string
	IdempotencyKey string
}

// RecordPaymentResult is returned by RecordPayment.
type RecordPaymentResult struct {
	InsertedID   string
	BadgeApplied bool
	// Replayed is true when the idempotency key matched an earlier payment.
	Replayed bool
}

// BadgeUpdate is a pending badge upgrade for the user that made a payment.
type BadgeUpdate struct {
	PaymentID string
	Email     string
	Badge     string
	PaidAt    time.Time
	Attempt   int
}

type PaymentService interface {
	CreateIntent(ctx context.Context, price float64) (string, error)
	RecordPayment(ctx context.Context, input RecordPaymentInput) (*RecordPaymentResult, error)
	History(ctx context.Context, email string) ([]*domain.Payment, error)
}

// BadgeApplier applies one badge update. Implementations must be idempotent
// and return nil once the update is settled, including when the payer no
// longer exists or already holds a newer badge.
type BadgeApplier interface {
	ApplyBadge(ctx context.Context, update BadgeUpdate) error
}

// BadgeRetryQueue accepts badge updates that failed inline.
type BadgeRetryQueue interface {
	Enqueue(update BadgeUpdate)
}

// PaymentGateway creates payment intents with the external card processor.
type PaymentGateway interface {
	// CreateIntent returns the client secret for an intent of amount minor units.
	CreateIntent(ctx context.Context, amount int64, currency string) (string, error)
}

// IdempotencyStore claims idempotency keys so a retried request is not
// recorded twice.
type IdempotencyStore interface {
	// Claim reports true when the key was not seen before.
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
