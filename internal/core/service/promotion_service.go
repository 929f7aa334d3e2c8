package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dinedorm/server/internal/core/domain"
	"github.com/dinedorm/server/internal/core/ports"
	"github.com/dinedorm/server/pkg/metrics"
)

// PromotionService moves a meal from upcomingMeals to meals as insert-then-delete.
type PromotionService struct {
	meals    ports.MealRepository
	upcoming ports.UpcomingMealRepository
	logger   zerolog.Logger
	now      func() time.Time
}

func NewPromotionService(meals ports.MealRepository, upcoming ports.UpcomingMealRepository, logger zerolog.Logger) *PromotionService {
	return &PromotionService{meals: meals, upcoming: upcoming, logger: logger, now: time.Now}
}

// Promote copies the upcoming meal into the active collection under a new ID
// and then deletes the original. If the insert fails nothing is deleted. If
// the delete fails after the insert succeeded, a *domain.PartialFailureError
// naming both IDs is returned so the stale upcoming meal can be removed.
func (s *PromotionService) Promote(ctx context.Context, upcomingID string) (domain.WriteResult, error) {
	start := time.Now()
	defer func() {
		metrics.WorkflowDuration.WithLabelValues("promotion").Observe(time.Since(start).Seconds())
	}()

	// 1. Load the source document.
	src, err := s.upcoming.FindByID(ctx, upcomingID)
	if err != nil {
		if errors.Is(err, domain.ErrUpcomingMealNotFound) {
			metrics.PromotionsTotal.WithLabelValues("not_found").Inc()
		}
		return domain.WriteResult{}, fmt.Errorf("promote meal: %w", err)
	}

	// 2. Insert under a fresh identifier.
	meal := src.Promoted()
	meal.PromotedAt = s.now().UTC()
	newID, err := s.meals.Create(ctx, meal)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyPromoted) {
			metrics.PromotionsTotal.WithLabelValues("already_promoted").Inc()
			return domain.WriteResult{}, err
		}
		metrics.PromotionsTotal.WithLabelValues("insert_failed").Inc()
		return domain.WriteResult{}, fmt.Errorf("promote meal: insert: %w", err)
	}

	// 3. Remove the original.
	deleted, err := s.upcoming.Delete(ctx, src.ID)
	if err == nil && deleted == 0 {
		err = fmt.Errorf("upcoming meal %s vanished before delete", src.ID)
	}
	if err != nil {
		metrics.PromotionsTotal.WithLabelValues("partial").Inc()
		metrics.PartialFailuresTotal.WithLabelValues("promotion").Inc()
		s.logger.Error().Err(err).
			Str("upcoming_id", src.ID).
			Str("meal_id", newID).
			Msg("meal promoted but upcoming meal not deleted")
		return domain.WriteResult{InsertedID: newID}, &domain.PartialFailureError{
			Workflow:  "promote meal",
			Completed: "insert of meal " + newID,
			Failed:    "delete of upcoming meal " + src.ID,
			Remedy:    fmt.Sprintf("meal %s was created but upcoming meal %s still exists; delete the upcoming meal to reconcile", newID, src.ID),
			Err:       err,
		}
	}

	metrics.PromotionsTotal.WithLabelValues("promoted").Inc()
	s.logger.Info().Str("upcoming_id", src.ID).Str("meal_id", newID).Msg("meal promoted")
	return domain.WriteResult{InsertedID: newID, DeletedCount: deleted}, nil
}
