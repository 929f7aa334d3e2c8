package ports

import (
	"context"

	"github.com/dinedorm/server/internal/core/domain"
)

// CreateMealInput carries the fields an admin supplies when posting a meal.
type CreateMealInput struct {
	Title       string
	Category    string
	Image       string
	Price       float64
	Description string
	Ingredients []string
	Rating      float64
	Distributor domain.Distributor
}

type MealService interface {
	List(ctx context.Context, filter domain.MealFilter) ([]*domain.Meal, error)
	Get(ctx context.Context, id string) (*domain.Meal, error)
	Create(ctx context.Context, input CreateMealInput) (domain.WriteResult, error)
	// Like records that user likes the meal at most once.
	Like(ctx context.Context, mealID, user string) (domain.WriteResult, error)
	ListUpcoming(ctx context.Context) ([]*domain.Meal, error)
	CreateUpcoming(ctx context.Context, input CreateMealInput) (domain.WriteResult, error)
}

// PromotionService moves upcoming meals into the active collection.
type PromotionService interface {
	Promote(ctx context.Context, upcomingID string) (domain.WriteResult, error)
}
