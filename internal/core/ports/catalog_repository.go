package ports

import (
	"context"

	"github.com/dinedorm/server/internal/core/domain"
)

type PackageRepository interface {
	List(ctx context.Context) ([]*domain.Package, error)
	FindByName(ctx context.Context, name string) (*domain.Package, error)
}

type RequestRepository interface {
	Create(ctx context.Context, r *domain.MealRequest) (string, error)
	ListByEmail(ctx context.Context, email string) ([]*domain.MealRequest, error)
	SetStatus(ctx context.Context, id, status string) (domain.WriteResult, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, r *domain.Review) (string, error)
	ListByMeal(ctx context.Context, mealID string) ([]*domain.Review, error)
}
