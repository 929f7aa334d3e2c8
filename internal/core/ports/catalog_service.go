package ports

import (
	"context"

	"github.com/dinedorm/server/internal/core/domain"
)

type CreateRequestInput struct {
	MealID string
	Email  string
	Name   string
}

type CreateReviewInput struct {
	MealID  string
	Email   string
	Name    string
	Rating  int
	Comment string
}

// CatalogService covers the single-document endpoints around meals:
// packages, meal requests and reviews.
type CatalogService interface {
	ListPackages(ctx context.Context) ([]*domain.Package, error)
	GetPackage(ctx context.Context, name string) (*domain.Package, error)
	CreateRequest(ctx context.Context, input CreateRequestInput) (domain.WriteResult, error)
	ListRequests(ctx context.Context, email string) ([]*domain.MealRequest, error)
	ServeRequest(ctx context.Context, id string) (domain.WriteResult, error)
	CreateReview(ctx context.Context, input CreateReviewInput) (domain.WriteResult, error)
	ListReviews(ctx context.Context, mealID string) ([]*domain.Review, error)
}

// ReconcileService repairs state left behind by partially failed workflows.
type ReconcileService interface {
	ReconcileBadges(ctx context.Context) (int, error)
	ReconcilePromotions(ctx context.Context) (int, error)
}
