package ports

import (
	"context"
	"time"

	"github.com/dinedorm/server/internal/core/domain"
)

// PaymentRepository defines persistence operations for payments.
type PaymentRepository interface {
	// Create inserts a payment and returns its ID. Returns domain.ErrDuplicateKey
	// when the idempotency key has already been stored.
	Create(ctx context.Context, p *domain.Payment) (string, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error)
	ListByEmail(ctx context.Context, email string) ([]*domain.Payment, error)
	// SettleBadge records the final badge outcome of a payment, one of the
	// domain.BadgeOutcome constants. A settled payment is no longer pending.
	SettleBadge(ctx context.Context, id, outcome string) error
	// ListBadgePending returns unsettled payments paid before the cutoff,
	// oldest first.
	ListBadgePending(ctx context.Context, before time.Time) ([]*domain.Payment, error)
}
