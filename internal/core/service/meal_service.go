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

type MealService struct {
	meals    ports.MealRepository
	upcoming ports.UpcomingMealRepository
	logger   zerolog.Logger
}

func NewMealService(meals ports.MealRepository, upcoming ports.UpcomingMealRepository, logger zerolog.Logger) *MealService {
	return &MealService{meals: meals, upcoming: upcoming, logger: logger}
}

func (s *MealService) List(ctx context.Context, filter domain.MealFilter) ([]*domain.Meal, error) {
	return s.meals.List(ctx, filter)
}

func (s *MealService) Get(ctx context.Context, id string) (*domain.Meal, error) {
	return s.meals.FindByID(ctx, id)
}

func (s *MealService) Create(ctx context.Context, input ports.CreateMealInput) (domain.WriteResult, error) {
	id, err := s.meals.Create(ctx, newMeal(input))
	if err != nil {
		return domain.WriteResult{}, fmt.Errorf("create meal: %w", err)
	}
	return domain.WriteResult{InsertedID: id}, nil
}

func (s *MealService) ListUpcoming(ctx context.Context) ([]*domain.Meal, error) {
	return s.upcoming.List(ctx)
}

func (s *MealService) CreateUpcoming(ctx context.Context, input ports.CreateMealInput) (domain.WriteResult, error) {
	id, err := s.upcoming.Create(ctx, newMeal(input))
	if err != nil {
		return domain.WriteResult{}, fmt.Errorf("create upcoming meal: %w", err)
	}
	return domain.WriteResult{InsertedID: id}, nil
}

// Like adds user to the meal's likers and bumps the counter. The duplicate
// check and the increment are one conditional update, so two concurrent likes
// from the same user produce exactly one increment.
func (s *MealService) Like(ctx context.Context, mealID, user string) (domain.WriteResult, error) {
	res, err := s.meals.AddLike(ctx, mealID, user)
	if err != nil {
		return domain.WriteResult{}, fmt.Errorf("like meal: %w", err)
	}

	if res.MatchedCount == 0 {
		// Nothing matched: either the meal is gone or user already likes it.
		if _, err := s.meals.FindByID(ctx, mealID); err != nil {
			if errors.Is(err, domain.ErrMealNotFound) {
				metrics.LikesTotal.WithLabelValues("not_found").Inc()
			}
			return domain.WriteResult{}, fmt.Errorf("like meal: %w", err)
		}
		metrics.LikesTotal.WithLabelValues("already_liked").Inc()
		return domain.WriteResult{}, domain.ErrAlreadyLiked
	}

	metrics.LikesTotal.WithLabelValues("accepted").Inc()
	s.logger.Debug().Str("meal_id", mealID).Str("user", user).Msg("meal liked")
	return res, nil
}

func newMeal(in ports.CreateMealInput) *domain.Meal {
	return &domain.Meal{
		Title:       in.Title,
		Category:    in.Category,
		Image:       in.Image,
		Price:       in.Price,
		Description: in.Description,
		Ingredients: in.Ingredients,
		Rating:      in.Rating,
		Distributor: in.Distributor,
		PostedAt:    time.Now().UTC(),
		Likers:      []string{},
	}
}
