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
)

func upcomingFixture() *domain.Meal {
	return &domain.Meal{
		ID:          "U1",
		Title:       "Beef Tehari",
		Category:    "lunch",
		Price:       3.5,
		Ingredients: []string{"rice", "beef"},
		Likes:       2,
		Likers:      []string{"a@x.com", "b@x.com"},
	}
}

func TestPromotionService_Promote_Success(t *testing.T) {
	meals := newStubMealRepo()
	upcoming := newStubUpcomingRepo(upcomingFixture())
	svc := NewPromotionService(meals, upcoming, zerolog.Nop())

	res, err := svc.Promote(context.Background(), "U1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.InsertedID)
	assert.NotEqual(t, "U1", res.InsertedID)
	assert.Equal(t, int64(1), res.DeletedCount)

	_, err = upcoming.FindByID(context.Background(), "U1")
	assert.ErrorIs(t, err, domain.ErrUpcomingMealNotFound)

	all, _ := meals.List(context.Background(), domain.MealFilter{})
	require.Len(t, all, 1)
	m := all[0]
	assert.Equal(t, "Beef Tehari", m.Title)
	assert.Equal(t, "U1", m.PromotedFrom)
	assert.Equal(t, len(m.Likers), m.Likes)
}

func TestPromotionService_Promote_NotFound(t *testing.T) {
	meals := newStubMealRepo()
	svc := NewPromotionService(meals, newStubUpcomingRepo(), zerolog.Nop())

	_, err := svc.Promote(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrUpcomingMealNotFound)

	all, _ := meals.List(context.Background(), domain.MealFilter{})
	assert.Empty(t, all, "nothing may be inserted for a missing upcoming meal")
}

func TestPromotionService_Promote_InsertFailsLeavesUpcoming(t *testing.T) {
	meals := newStubMealRepo()
	meals.createErr = errors.New("write concern timeout")
	upcoming := newStubUpcomingRepo(upcomingFixture())
	svc := NewPromotionService(meals, upcoming, zerolog.Nop())

	_, err := svc.Promote(context.Background(), "U1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrPartialFailure), "insert failure is not a partial failure")

	_, err = upcoming.FindByID(context.Background(), "U1")
	assert.NoError(t, err, "upcoming meal must be untouched")
}

func TestPromotionService_Promote_DeleteFailsIsPartial(t *testing.T) {
	meals := newStubMealRepo()
	upcoming := newStubUpcomingRepo(upcomingFixture())
	upcoming.deleteErr = errors.New("not primary")
	svc := NewPromotionService(meals, upcoming, zerolog.Nop())

	res, err := svc.Promote(context.Background(), "U1")
	require.ErrorIs(t, err, domain.ErrPartialFailure)

	var pf *domain.PartialFailureError
	require.True(t, errors.As(err, &pf))
	assert.Contains(t, pf.Remedy, "U1")
	assert.Contains(t, pf.Remedy, res.InsertedID)

	_, err = meals.FindByID(context.Background(), res.InsertedID)
	assert.NoError(t, err, "inserted meal is kept")
}

func TestPromotionService_Promote_PartialIsSweptByReconciler(t *testing.T) {
	now := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)
	meals := newStubMealRepo()
	upcoming := newStubUpcomingRepo(upcomingFixture())
	upcoming.deleteErr = errors.New("not primary")
	svc := NewPromotionService(meals, upcoming, zerolog.Nop())
	svc.now = fixedClock(now)

	res, err := svc.Promote(context.Background(), "U1")
	require.ErrorIs(t, err, domain.ErrPartialFailure)

	m, err := meals.FindByID(context.Background(), res.InsertedID)
	require.NoError(t, err)
	assert.True(t, m.PromotedAt.Equal(now))

	upcoming.deleteErr = nil
	rec := NewReconcileService(&stubPaymentRepo{}, meals, upcoming, nil, zerolog.Nop())
	rec.now = fixedClock(now.Add(10 * time.Minute))
	n, err := rec.ReconcilePromotions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = upcoming.FindByID(context.Background(), "U1")
	assert.ErrorIs(t, err, domain.ErrUpcomingMealNotFound)
}

func TestPromotionService_Promote_Twice(t *testing.T) {
	meals := newStubMealRepo()
	upcoming := newStubUpcomingRepo(upcomingFixture())
	svc := NewPromotionService(meals, upcoming, zerolog.Nop())

	_, err := svc.Promote(context.Background(), "U1")
	require.NoError(t, err)

	_, err = svc.Promote(context.Background(), "U1")
	assert.ErrorIs(t, err, domain.ErrUpcomingMealNotFound)

	all, _ := meals.List(context.Background(), domain.MealFilter{})
	assert.Len(t, all, 1)
}

func TestPromotionService_Promote_AlreadyPromotedCopyExists(t *testing.T) {
	// a previous run inserted the meal but never deleted the upcoming one
	meals := newStubMealRepo(&domain.Meal{ID: "meal-old", Title: "Beef Tehari", PromotedFrom: "U1"})
	upcoming := newStubUpcomingRepo(upcomingFixture())
	svc := NewPromotionService(meals, upcoming, zerolog.Nop())

	_, err := svc.Promote(context.Background(), "U1")
	assert.ErrorIs(t, err, domain.ErrAlreadyPromoted)

	all, _ := meals.List(context.Background(), domain.MealFilter{})
	assert.Len(t, all, 1)
}
