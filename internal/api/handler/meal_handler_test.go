package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/dinedorm/server/internal/core/domain"
	"github.com/dinedorm/server/internal/core/ports"
)

const validMeal = `{"title":"Khichuri","category":"lunch","price":4.5,"rating":4,` +
	`"distributor":{"name":"Rahim","email":"rahim@x.com"}}`

func TestMealHandler_List_PassesFilter(t *testing.T) {
	stub := &stubMealService{
		listFn: func(_ context.Context, f domain.MealFilter) ([]*domain.Meal, error) {
			if f.Category != "dinner" || f.Search != "rice" {
				t.Fatalf("unexpected filter: %+v", f)
			}
			return []*domain.Meal{{ID: "m1", Title: "Fried rice"}}, nil
		},
	}
	c, rec := newContext(t, http.MethodGet, "/meals?category=dinner&search=rice", "", "")

	if err := NewMealHandler(stub, nil).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var meals []domain.Meal
	_ = json.Unmarshal(rec.Body.Bytes(), &meals)
	if len(meals) != 1 || meals[0].ID != "m1" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestMealHandler_Like_UsesCallerIdentity(t *testing.T) {
	stub := &stubMealService{
		likeFn: func(_ context.Context, id, user string) (domain.WriteResult, error) {
			if id != "m1" || user != "alice@x.com" {
				t.Fatalf("unexpected args: %s %s", id, user)
			}
			return domain.WriteResult{MatchedCount: 1, ModifiedCount: 1}, nil
		},
	}
	c, rec := newContext(t, http.MethodPost, "/meal/m1/like", "", "alice@x.com")
	c.SetParamNames("id")
	c.SetParamValues("m1")

	if err := NewMealHandler(stub, nil).Like(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var res domain.WriteResult
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	if res.ModifiedCount != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestMealHandler_Like_AlreadyLiked(t *testing.T) {
	stub := &stubMealService{
		likeFn: func(context.Context, string, string) (domain.WriteResult, error) {
			return domain.WriteResult{}, domain.ErrAlreadyLiked
		},
	}
	c, _ := newContext(t, http.MethodPost, "/meal/m1/like", "", "alice@x.com")
	c.SetParamNames("id")
	c.SetParamValues("m1")

	if err := NewMealHandler(stub, nil).Like(c); !errors.Is(err, domain.ErrAlreadyLiked) {
		t.Fatalf("expected ErrAlreadyLiked, got %v", err)
	}
}

func TestMealHandler_Like_Anonymous(t *testing.T) {
	c, _ := newContext(t, http.MethodPost, "/meal/m1/like", "", "")
	if err := NewMealHandler(&stubMealService{}, nil).Like(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestMealHandler_Create(t *testing.T) {
	stub := &stubMealService{
		createFn: func(_ context.Context, in ports.CreateMealInput) (domain.WriteResult, error) {
			if in.Title != "Khichuri" || in.Distributor.Email != "rahim@x.com" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return domain.WriteResult{InsertedID: "m9"}, nil
		},
	}
	c, rec := newContext(t, http.MethodPost, "/meals", validMeal, "root@x.com")

	if err := NewMealHandler(stub, nil).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestMealHandler_Create_ValidationFails(t *testing.T) {
	stub := &stubMealService{
		createFn: func(context.Context, ports.CreateMealInput) (domain.WriteResult, error) {
			t.Fatalf("service must not be called")
			return domain.WriteResult{}, nil
		},
	}
	c, _ := newContext(t, http.MethodPost, "/meals", `{"title":"x","category":"brunch","price":0}`, "root@x.com")

	err := NewMealHandler(stub, nil).Create(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestMealHandler_Promote(t *testing.T) {
	promo := &stubPromotionService{
		promoteFn: func(_ context.Context, id string) (domain.WriteResult, error) {
			if id != "u1" {
				t.Fatalf("unexpected id %s", id)
			}
			return domain.WriteResult{InsertedID: "m2", DeletedCount: 1}, nil
		},
	}
	c, rec := newContext(t, http.MethodPost, "/moveMeal", `{"id":"u1"}`, "root@x.com")

	if err := NewMealHandler(nil, promo).Promote(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var res domain.WriteResult
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	if res.InsertedID != "m2" || res.DeletedCount != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestMealHandler_Promote_PartialFailurePropagates(t *testing.T) {
	promo := &stubPromotionService{
		promoteFn: func(context.Context, string) (domain.WriteResult, error) {
			return domain.WriteResult{InsertedID: "m2"}, &domain.PartialFailureError{Workflow: "promote meal", Err: errors.New("timeout")}
		},
	}
	c, _ := newContext(t, http.MethodPost, "/moveMeal", `{"id":"u1"}`, "root@x.com")

	if err := NewMealHandler(nil, promo).Promote(c); !errors.Is(err, domain.ErrPartialFailure) {
		t.Fatalf("expected partial failure, got %v", err)
	}
}
