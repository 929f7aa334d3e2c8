package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dinedorm/server/internal/core/domain"
	"github.com/dinedorm/server/internal/core/ports"
	"github.com/dinedorm/server/pkg/metrics"
)

const defaultCurrency = "usd"

// PaymentService records completed purchases and upgrades the payer's badge.
//
// The payment is inserted before the badge is touched, so the worst residual
// state after a failure is a recorded payment whose badge is still pending.
// Pending badges are retried through the BadgeRetryQueue and swept by the
// reconciler. A badge is only written when its payment is newer than the one
// that granted the user's current badge, so late retries never downgrade.
type PaymentService struct {
	payments ports.PaymentRepository
	users    ports.UserRepository
	gateway  ports.PaymentGateway
	idem     ports.IdempotencyStore
	retries  ports.BadgeRetryQueue
	currency string
	logger   zerolog.Logger
	now      func() time.Time
}

func NewPaymentService(
	payments ports.PaymentRepository,
	users ports.UserRepository,
	gateway ports.PaymentGateway,
	idem ports.IdempotencyStore,
	logger zerolog.Logger,
	currency string,
) *PaymentService {
	if currency == "" {
		currency = defaultCurrency
	}
	return &PaymentService{
		payments: payments,
		users:    users,
		gateway:  gateway,
		idem:     idem,
		currency: strings.ToLower(currency),
		logger:   logger,
		now:      time.Now,
	}
}

// SetRetryQueue wires the queue used for badge updates that fail inline. The
// queue's workers call back into ApplyBadge, so it is attached after construction.
func (s *PaymentService) SetRetryQueue(q ports.BadgeRetryQueue) {
	s.retries = q
}

// CreateIntent asks the gateway for a payment intent of price converted to
// minor units and returns the client secret. Gateway details are logged, never
// returned.
func (s *PaymentService) CreateIntent(ctx context.Context, price float64) (string, error) {
	amount := int64(math.Round(price * 100))

	secret, err := s.gateway.CreateIntent(ctx, amount, s.currency)
	if err != nil {
		metrics.PaymentIntentsTotal.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Int64("amount", amount).Str("currency", s.currency).Msg("create payment intent failed")
		return "", domain.ErrGateway
	}

	metrics.PaymentIntentsTotal.WithLabelValues("ok").Inc()
	return secret, nil
}

// RecordPayment stores the payment and then applies its badge to the payer.
// The payer must be a registered user; otherwise nothing is stored.
func (s *PaymentService) RecordPayment(ctx context.Context, in ports.RecordPaymentInput) (*ports.RecordPaymentResult, error) {
	start := time.Now()
	defer func() {
		metrics.WorkflowDuration.WithLabelValues("payment").Observe(time.Since(start).Seconds())
	}()

	email := strings.ToLower(in.Email)
	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("record payment: find user: %w", err)
	}

	// 1. Idempotency: a retried request returns the first result.
	if in.IdempotencyKey != "" {
		if replay, err := s.claim(ctx, in.IdempotencyKey); replay != nil || err != nil {
			return replay, err
		}
	}

	// 2. Record the payment. Failure here means nothing happened.
	payment := &domain.Payment{
		Email:          email,
		Amount:         in.Amount,
		Badge:          in.Badge,
		TransactionID:  in.TransactionID,
		IdempotencyKey: in.IdempotencyKey,
		PaidAt:         s.now().UTC(),
	}
	if payment.TransactionID == "" {
		payment.TransactionID = uuid.NewString()
	}

	id, err := s.payments.Create(ctx, payment)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) && in.IdempotencyKey != "" {
			return s.replay(ctx, in.IdempotencyKey)
		}
		s.release(ctx, in.IdempotencyKey)
		return nil, fmt.Errorf("record payment: insert: %w", err)
	}
	payment.ID = id
	metrics.PaymentsRecordedTotal.WithLabelValues(payment.Badge).Inc()

	// 3. Upgrade the badge.
	update := ports.BadgeUpdate{PaymentID: id, Email: payment.Email, Badge: payment.Badge, PaidAt: payment.PaidAt}
	outcome, err := s.applyBadge(ctx, update)
	if err != nil {
		metrics.PartialFailuresTotal.WithLabelValues("payment").Inc()
		s.logger.Error().Err(err).
			Str("payment_id", id).
			Str("email", payment.Email).
			Str("badge", payment.Badge).
			Msg("payment recorded but badge not applied, queued for retry")
		if s.retries != nil {
			s.retries.Enqueue(update)
		}
		return &ports.RecordPaymentResult{InsertedID: id}, &domain.PartialFailureError{
			Workflow:  "record payment",
			Completed: "insert of payment " + id,
			Failed:    "badge update for " + payment.Email,
			Remedy:    fmt.Sprintf("payment %s was recorded; badge %q for %s is pending and will be retried", id, payment.Badge, payment.Email),
			Err:       err,
		}
	}

	s.logger.Info().Str("payment_id", id).Str("email", payment.Email).Str("badge", payment.Badge).Str("outcome", outcome).Msg("payment recorded")
	return &ports.RecordPaymentResult{InsertedID: id, BadgeApplied: outcome == domain.BadgeOutcomeApplied}, nil
}

// ApplyBadge settles one badge update. It returns nil once the payment is
// settled, including when the payer is gone or holds a newer badge. Applying
// the same update twice is harmless.
func (s *PaymentService) ApplyBadge(ctx context.Context, u ports.BadgeUpdate) error {
	_, err := s.applyBadge(ctx, u)
	return err
}

func (s *PaymentService) applyBadge(ctx context.Context, u ports.BadgeUpdate) (string, error) {
	outcome := domain.BadgeOutcomeApplied
	applied, err := s.users.SetBadge(ctx, u.Email, u.Badge, u.PaidAt)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		outcome = domain.BadgeOutcomeNoUser
		s.logger.Error().Str("payment_id", u.PaymentID).Str("email", u.Email).Msg("payer no longer exists, badge dropped")
	case err != nil:
		return "", fmt.Errorf("apply badge: %w", err)
	case !applied:
		outcome = domain.BadgeOutcomeSuperseded
		s.logger.Info().Str("payment_id", u.PaymentID).Str("email", u.Email).Msg("newer badge already applied")
	}

	if err := s.payments.SettleBadge(ctx, u.PaymentID, outcome); err != nil {
		// the reconciler settles it again; the user side is already final
		s.logger.Warn().Err(err).Str("payment_id", u.PaymentID).Msg("failed to settle badge")
	}
	return outcome, nil
}

func (s *PaymentService) History(ctx context.Context, email string) ([]*domain.Payment, error) {
	return s.payments.ListByEmail(ctx, strings.ToLower(email))
}

// claim returns a non-nil result when key was already used.
func (s *PaymentService) claim(ctx context.Context, key string) (*ports.RecordPaymentResult, error) {
	if s.idem == nil {
		return nil, nil
	}
	fresh, err := s.idem.Claim(ctx, key)
	if err != nil {
		// the unique index on idempotencyKey still catches the replay
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency claim failed, processing anyway")
		return nil, nil
	}
	if fresh {
		return nil, nil
	}
	return s.replay(ctx, key)
}

func (s *PaymentService) replay(ctx context.Context, key string) (*ports.RecordPaymentResult, error) {
	existing, err := s.payments.FindByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return nil, domain.ErrPaymentInProgress
		}
		return nil, fmt.Errorf("record payment: replay: %w", err)
	}
	s.logger.Info().Str("idempotency_key", key).Str("payment_id", existing.ID).Msg("idempotent replay")
	return &ports.RecordPaymentResult{
		InsertedID:   existing.ID,
		BadgeApplied: existing.BadgeApplied,
		Replayed:     true,
	}, nil
}

func (s *PaymentService) release(ctx context.Context, key string) {
	if key == "" || s.idem == nil {
		return
	}
	if err := s.idem.Release(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to release idempotency key")
	}
}
