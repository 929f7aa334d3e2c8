package ports

import (
	"context"
	"time"

	"github.com/dinedorm/server/internal/core/domain"
)

// MealRepository defines persistence operations for the active meals collection.
type MealRepository interface {
	// Create inserts a meal under a freshly generated ID and returns it.
	// Returns domain.ErrAlreadyPromoted when a meal with the same PromotedFrom
	// already exists.
	Create(ctx context.Context, meal *domain.Meal) (string, error)
	FindByID(ctx context.Context, id string) (*domain.Meal, error)
	List(ctx context.Context, filter domain.MealFilter) ([]*domain.Meal, error)
	// AddLike increments likes and appends user to likers in one conditional
	// update that only matches when user is not already a liker.
	AddLike(ctx context.Context, id, user string) (domain.WriteResult, error)
	IncrementReviewCount(ctx context.Context, id string) error
	// ListPromotedSince returns meals promoted at or after since.
	ListPromotedSince(ctx context.Context, since time.Time) ([]*domain.Meal, error)
}

// UpcomingMealRepository defines persistence operations for the upcomingMeals collection.
type UpcomingMealRepository interface {
	Create(ctx context.Context, meal *domain.Meal) (string, error)
	FindByID(ctx context.Context, id string) (*domain.Meal, error)
	List(ctx context.Context) ([]*domain.Meal, error)
	// Delete removes the upcoming meal and reports how many documents went away.
	Delete(ctx context.Context, id string) (int64, error)
}
