package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinedorm/server/internal/core/domain"
	"github.com/dinedorm/server/internal/core/ports"
)

func TestReconcileService_ReconcileBadges(t *testing.T) {
	users := newStubUserRepo(&domain.User{ID: "u1", Email: "a@x.com", Badge: domain.DefaultBadge})
	payments := &stubPaymentRepo{}
	paidAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	_, _ = payments.Create(context.Background(), &domain.Payment{Email: "a@x.com", Badge: "gold", Amount: 20, PaidAt: paidAt})

	paySvc := NewPaymentService(payments, users, &stubGateway{}, nil, zerolog.Nop(), "usd")
	svc := NewReconcileService(payments, newStubMealRepo(), newStubUpcomingRepo(), paySvc, zerolog.Nop())
	svc.now = fixedClock(paidAt.Add(time.Hour))

	n, err := svc.ReconcileBadges(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "gold", users.badgeOf("a@x.com"))

	pending, _ := payments.ListBadgePending(context.Background(), paidAt.Add(time.Hour))
	assert.Empty(t, pending)

	n, err = svc.ReconcileBadges(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "second sweep has nothing to do")
}

func TestReconcileService_ReconcileBadges_RespectsGrace(t *testing.T) {
	users := newStubUserRepo(&domain.User{ID: "u1", Email: "a@x.com", Badge: domain.DefaultBadge})
	payments := &stubPaymentRepo{}
	paidAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	_, _ = payments.Create(context.Background(), &domain.Payment{Email: "a@x.com", Badge: "gold", PaidAt: paidAt})

	paySvc := NewPaymentService(payments, users, &stubGateway{}, nil, zerolog.Nop(), "usd")
	svc := NewReconcileService(payments, newStubMealRepo(), newStubUpcomingRepo(), paySvc, zerolog.Nop())
	svc.now = fixedClock(paidAt.Add(30 * time.Second))

	n, err := svc.ReconcileBadges(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, domain.DefaultBadge, users.badgeOf("a@x.com"))
}

func TestReconcileService_ReconcileBadges_OlderPaymentDoesNotDowngrade(t *testing.T) {
	ctx := context.Background()
	users := newStubUserRepo(&domain.User{ID: "u1", Email: "a@x.com", Badge: domain.DefaultBadge})
	payments := &stubPaymentRepo{}
	paySvc := NewPaymentService(payments, users, &stubGateway{}, nil, zerolog.Nop(), "usd")
	paySvc.SetRetryQueue(&stubRetryQueue{})
	paidAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	users.badgeErr = errors.New("primary stepped down")
	paySvc.now = fixedClock(paidAt)
	gold, err := paySvc.RecordPayment(ctx, ports.RecordPaymentInput{Email: "a@x.com", Badge: "gold", Amount: 20})
	require.ErrorIs(t, err, domain.ErrPartialFailure)

	users.badgeErr = nil
	paySvc.now = fixedClock(paidAt.Add(time.Minute))
	_, err = paySvc.RecordPayment(ctx, ports.RecordPaymentInput{Email: "a@x.com", Badge: "platinum", Amount: 50})
	require.NoError(t, err)
	require.Equal(t, "platinum", users.badgeOf("a@x.com"))

	svc := NewReconcileService(payments, newStubMealRepo(), newStubUpcomingRepo(), paySvc, zerolog.Nop())
	svc.now = fixedClock(paidAt.Add(time.Hour))

	n, err := svc.ReconcileBadges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "platinum", users.badgeOf("a@x.com"))
	assert.Equal(t, domain.BadgeOutcomeSuperseded, payments.byID(gold.InsertedID).BadgeOutcome)

	pending, _ := payments.ListBadgePending(ctx, paidAt.Add(time.Hour))
	assert.Empty(t, pending)
}

func TestReconcileService_ReconcileBadges_SettlesPaymentOfRemovedUser(t *testing.T) {
	ctx := context.Background()
	users := newStubUserRepo()
	payments := &stubPaymentRepo{}
	paidAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	id, _ := payments.Create(ctx, &domain.Payment{Email: "gone@x.com", Badge: "gold", PaidAt: paidAt})

	paySvc := NewPaymentService(payments, users, &stubGateway{}, nil, zerolog.Nop(), "usd")
	svc := NewReconcileService(payments, newStubMealRepo(), newStubUpcomingRepo(), paySvc, zerolog.Nop())
	svc.now = fixedClock(paidAt.Add(time.Hour))

	n, err := svc.ReconcileBadges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, domain.BadgeOutcomeNoUser, payments.byID(id).BadgeOutcome)

	n, err = svc.ReconcileBadges(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "settled payment is not swept again")
}

func TestReconcileService_ReconcilePromotions(t *testing.T) {
	now := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)
	meals := newStubMealRepo(
		&domain.Meal{ID: "meal-1", PromotedFrom: "U1", PromotedAt: now.Add(-time.Hour)},
		&domain.Meal{ID: "meal-2", PromotedFrom: "U2", PromotedAt: now.Add(-2 * time.Hour)},
		&domain.Meal{ID: "meal-3"},
	)
	upcoming := newStubUpcomingRepo(&domain.Meal{ID: "U1"}, &domain.Meal{ID: "U3"})
	svc := NewReconcileService(&stubPaymentRepo{}, meals, upcoming, nil, zerolog.Nop())
	svc.now = fixedClock(now)

	n, err := svc.ReconcilePromotions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = upcoming.FindByID(context.Background(), "U1")
	assert.ErrorIs(t, err, domain.ErrUpcomingMealNotFound)
	_, err = upcoming.FindByID(context.Background(), "U3")
	assert.NoError(t, err, "unrelated upcoming meals stay")
}

func TestReconcileService_ReconcilePromotions_SkipsOldPromotions(t *testing.T) {
	now := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)
	meals := newStubMealRepo(&domain.Meal{ID: "meal-1", PromotedFrom: "U1", PromotedAt: now.Add(-promotionWindow - time.Hour)})
	upcoming := newStubUpcomingRepo(&domain.Meal{ID: "U1"})
	svc := NewReconcileService(&stubPaymentRepo{}, meals, upcoming, nil, zerolog.Nop())
	svc.now = fixedClock(now)

	n, err := svc.ReconcilePromotions(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = upcoming.FindByID(context.Background(), "U1")
	assert.NoError(t, err, "promotions outside the window are not revisited")
}
