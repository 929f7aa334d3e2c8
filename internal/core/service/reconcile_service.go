package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dinedorm/server/internal/core/ports"
	"github.com/dinedorm/server/pkg/metrics"
)

// badgeGrace keeps the sweep away from payments whose inline badge update or
// queued retry may still be in flight.
const badgeGrace = 2 * time.Minute

// promotionWindow bounds how far back the sweep looks for promoted meals
// whose upcoming copy may have survived.
const promotionWindow = 24 * time.Hour

// ReconcileService repairs the residual states the two-write workflows can
// leave behind: payments without an applied badge, and upcoming meals that
// were promoted but not deleted.
type ReconcileService struct {
	payments ports.PaymentRepository
	meals    ports.MealRepository
	upcoming ports.UpcomingMealRepository
	badges   ports.BadgeApplier
	logger   zerolog.Logger
	now      func() time.Time
}

func NewReconcileService(
	payments ports.PaymentRepository,
	meals ports.MealRepository,
	upcoming ports.UpcomingMealRepository,
	badges ports.BadgeApplier,
	logger zerolog.Logger,
) *ReconcileService {
	return &ReconcileService{
		payments: payments,
		meals:    meals,
		upcoming: upcoming,
		badges:   badges,
		logger:   logger,
		now:      time.Now,
	}
}

// ReconcileBadges settles every pending payment, oldest first. A payment older
// than the one behind the user's current badge is settled without touching
// the user. It returns the number of payments settled.
func (s *ReconcileService) ReconcileBadges(ctx context.Context) (int, error) {
	pending, err := s.payments.ListBadgePending(ctx, s.now().Add(-badgeGrace))
	if err != nil {
		return 0, fmt.Errorf("reconcile badges: %w", err)
	}

	fixed := 0
	for _, p := range pending {
		err := s.badges.ApplyBadge(ctx, ports.BadgeUpdate{
			PaymentID: p.ID,
			Email:     p.Email,
			Badge:     p.Badge,
			PaidAt:    p.PaidAt,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("payment_id", p.ID).Str("email", p.Email).Msg("reconcile badge failed")
			continue
		}
		fixed++
		metrics.ReconciledTotal.WithLabelValues("badge").Inc()
	}

	if fixed > 0 {
		s.logger.Info().Int("count", fixed).Msg("pending badges reconciled")
	}
	return fixed, nil
}

// ReconcilePromotions deletes upcoming meals that already have a promoted copy
// in the meals collection. Only promotions inside promotionWindow are visited.
func (s *ReconcileService) ReconcilePromotions(ctx context.Context) (int, error) {
	promoted, err := s.meals.ListPromotedSince(ctx, s.now().Add(-promotionWindow))
	if err != nil {
		return 0, fmt.Errorf("reconcile promotions: %w", err)
	}

	fixed := 0
	for _, m := range promoted {
		n, err := s.upcoming.Delete(ctx, m.PromotedFrom)
		if err != nil {
			s.logger.Warn().Err(err).Str("upcoming_id", m.PromotedFrom).Msg("reconcile promotion failed")
			continue
		}
		if n > 0 {
			fixed++
			metrics.ReconciledTotal.WithLabelValues("promotion").Inc()
			s.logger.Info().Str("upcoming_id", m.PromotedFrom).Str("meal_id", m.ID).Msg("stale upcoming meal removed")
		}
	}
	return fixed, nil
}

// Run performs both sweeps. Errors are logged; it is meant for a scheduler.
func (s *ReconcileService) Run(ctx context.Context) {
	if _, err := s.ReconcileBadges(ctx); err != nil {
		s.logger.Error().Err(err).Msg("badge reconciliation failed")
	}
	if _, err := s.ReconcilePromotions(ctx); err != nil {
		s.logger.Error().Err(err).Msg("promotion reconciliation failed")
	}
}
