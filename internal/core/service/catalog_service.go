package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dinedorm/server/internal/core/domain"
	"github.com/dinedorm/server/internal/core/ports"
)

type CatalogService struct {
	packages ports.PackageRepository
	requests ports.RequestRepository
	reviews  ports.ReviewRepository
	meals    ports.MealRepository
	logger   zerolog.Logger
}

func NewCatalogService(
	packages ports.PackageRepository,
	requests ports.RequestRepository,
	reviews ports.ReviewRepository,
	meals ports.MealRepository,
	logger zerolog.Logger,
) *CatalogService {
	return &CatalogService{
		packages: packages,
		requests: requests,
		reviews:  reviews,
		meals:    meals,
		logger:   logger,
	}
}

func (s *CatalogService) ListPackages(ctx context.Context) ([]*domain.Package, error) {
	return s.packages.List(ctx)
}

func (s *CatalogService) GetPackage(ctx context.Context, name string) (*domain.Package, error) {
	return s.packages.FindByName(ctx, strings.ToLower(name))
}

// CreateRequest files a pending meal request for an existing meal.
func (s *CatalogService) CreateRequest(ctx context.Context, in ports.CreateRequestInput) (domain.WriteResult, error) {
	meal, err := s.meals.FindByID(ctx, in.MealID)
	if err != nil {
		return domain.WriteResult{}, fmt.Errorf("create request: %w", err)
	}

	id, err := s.requests.Create(ctx, &domain.MealRequest{
		MealID:      meal.ID,
		MealTitle:   meal.Title,
		Email:       in.Email,
		Name:        in.Name,
		Status:      domain.RequestPending,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.WriteResult{}, fmt.Errorf("create request: %w", err)
	}
	return domain.WriteResult{InsertedID: id}, nil
}

func (s *CatalogService) ListRequests(ctx context.Context, email string) ([]*domain.MealRequest, error) {
	return s.requests.ListByEmail(ctx, email)
}

func (s *CatalogService) ServeRequest(ctx context.Context, id string) (domain.WriteResult, error) {
	res, err := s.requests.SetStatus(ctx, id, domain.RequestServed)
	if err != nil {
		return domain.WriteResult{}, fmt.Errorf("serve request: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.WriteResult{}, domain.ErrRequestNotFound
	}
	return res, nil
}

// CreateReview stores the review and bumps the meal's review counter. The
// counter is advisory, so a failed increment is logged and not returned.
func (s *CatalogService) CreateReview(ctx context.Context, in ports.CreateReviewInput) (domain.WriteResult, error) {
	if _, err := s.meals.FindByID(ctx, in.MealID); err != nil {
		return domain.WriteResult{}, fmt.Errorf("create review: %w", err)
	}

	id, err := s.reviews.Create(ctx, &domain.Review{
		MealID:    in.MealID,
		Email:     in.Email,
		Name:      in.Name,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.WriteResult{}, fmt.Errorf("create review: %w", err)
	}

	if err := s.meals.IncrementReviewCount(ctx, in.MealID); err != nil {
		s.logger.Warn().Err(err).Str("meal_id", in.MealID).Str("review_id", id).Msg("failed to bump review count")
	}
	return domain.WriteResult{InsertedID: id}, nil
}

func (s *CatalogService) ListReviews(ctx context.Context, mealID string) ([]*domain.Review, error) {
	return s.reviews.ListByMeal(ctx, mealID)
}
