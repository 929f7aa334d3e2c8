package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dinedorm/server/internal/api/middleware"
	"github.com/dinedorm/server/internal/core/domain"
	"github.com/dinedorm/server/internal/core/ports"
)

// echoTokens treats the bearer token as the caller's email.
type echoTokens struct{}

func (echoTokens) Issue(email string) (string, error) {
	if email == "" {
		return "", domain.ErrUnauthorized
	}
	return "signed." + email, nil
}

func (echoTokens) Verify(token string) (*ports.Identity, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}
	return &ports.Identity{Email: token, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

// newContext builds an echo context with the validator registered. When email
// is set the request goes through the Authenticated gate first.
func newContext(t *testing.T, method, target, body, email string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if email != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+email)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if email != "" {
		if err := middleware.Authenticated(echoTokens{})(c); err != nil {
			t.Fatalf("authenticate: %v", err)
		}
	}
	return c, rec
}

type stubUserService struct {
	signupFn    func(ctx context.Context, in ports.SignupInput) (*ports.SignupResult, error)
	listFn      func(ctx context.Context, search string) ([]*domain.User, error)
	findFn      func(ctx context.Context, email string) (*domain.User, error)
	isAdminFn   func(ctx context.Context, email string) (bool, error)
	makeAdminFn func(ctx context.Context, id string) (domain.WriteResult, error)
}

func (s *stubUserService) Signup(ctx context.Context, in ports.SignupInput) (*ports.SignupResult, error) {
	return s.signupFn(ctx, in)
}

func (s *stubUserService) List(ctx context.Context, search string) ([]*domain.User, error) {
	return s.listFn(ctx, search)
}

func (s *stubUserService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	if s.findFn == nil {
		return nil, domain.ErrUserNotFound
	}
	return s.findFn(ctx, email)
}

func (s *stubUserService) IsAdmin(ctx context.Context, email string) (bool, error) {
	return s.isAdminFn(ctx, email)
}

func (s *stubUserService) MakeAdmin(ctx context.Context, id string) (domain.WriteResult, error) {
	return s.makeAdminFn(ctx, id)
}

type stubMealService struct {
	listFn   func(ctx context.Context, f domain.MealFilter) ([]*domain.Meal, error)
	getFn    func(ctx context.Context, id string) (*domain.Meal, error)
	createFn func(ctx context.Context, in ports.CreateMealInput) (domain.WriteResult, error)
	likeFn   func(ctx context.Context, id, user string) (domain.WriteResult, error)
}

func (s *stubMealService) List(ctx context.Context, f domain.MealFilter) ([]*domain.Meal, error) {
	return s.listFn(ctx, f)
}

func (s *stubMealService) Get(ctx context.Context, id string) (*domain.Meal, error) {
	return s.getFn(ctx, id)
}

func (s *stubMealService) Create(ctx context.Context, in ports.CreateMealInput) (domain.WriteResult, error) {
	return s.createFn(ctx, in)
}

func (s *stubMealService) Like(ctx context.Context, id, user string) (domain.WriteResult, error) {
	return s.likeFn(ctx, id, user)
}

func (s *stubMealService) ListUpcoming(ctx context.Context) ([]*domain.Meal, error) {
	return s.listFn(ctx, domain.MealFilter{})
}

func (s *stubMealService) CreateUpcoming(ctx context.Context, in ports.CreateMealInput) (domain.WriteResult, error) {
	return s.createFn(ctx, in)
}

type stubPromotionService struct {
	promoteFn func(ctx context.Context, id string) (domain.WriteResult, error)
}

func (s *stubPromotionService) Promote(ctx context.Context, id string) (domain.WriteResult, error) {
	return s.promoteFn(ctx, id)
}

type stubPaymentService struct {
	intentFn  func(ctx context.Context, price float64) (string, error)
	recordFn  func(ctx context.Context, in ports.RecordPaymentInput) (*ports.RecordPaymentResult, error)
	historyFn func(ctx context.Context, email string) ([]*domain.Payment, error)
}

func (s *stubPaymentService) CreateIntent(ctx context.Context, price float64) (string, error) {
	return s.intentFn(ctx, price)
}

func (s *stubPaymentService) RecordPayment(ctx context.Context, in ports.RecordPaymentInput) (*ports.RecordPaymentResult, error) {
	return s.recordFn(ctx, in)
}

func (s *stubPaymentService) History(ctx context.Context, email string) ([]*domain.Payment, error) {
	return s.historyFn(ctx, email)
}

type stubCatalogService struct {
	getPackageFn    func(ctx context.Context, name string) (*domain.Package, error)
	createRequestFn func(ctx context.Context, in ports.CreateRequestInput) (domain.WriteResult, error)
	listRequestsFn  func(ctx context.Context, email string) ([]*domain.MealRequest, error)
	createReviewFn  func(ctx context.Context, in ports.CreateReviewInput) (domain.WriteResult, error)
}

func (s *stubCatalogService) ListPackages(context.Context) ([]*domain.Package, error) {
	return []*domain.Package{{Name: "silver"}, {Name: "gold"}}, nil
}

func (s *stubCatalogService) GetPackage(ctx context.Context, name string) (*domain.Package, error) {
	return s.getPackageFn(ctx, name)
}

func (s *stubCatalogService) CreateRequest(ctx context.Context, in ports.CreateRequestInput) (domain.WriteResult, error) {
	return s.createRequestFn(ctx, in)
}

func (s *stubCatalogService) ListRequests(ctx context.Context, email string) ([]*domain.MealRequest, error) {
	return s.listRequestsFn(ctx, email)
}

func (s *stubCatalogService) ServeRequest(context.Context, string) (domain.WriteResult, error) {
	return domain.WriteResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (s *stubCatalogService) CreateReview(ctx context.Context, in ports.CreateReviewInput) (domain.WriteResult, error) {
	return s.createReviewFn(ctx, in)
}

func (s *stubCatalogService) ListReviews(context.Context, string) ([]*domain.Review, error) {
	return nil, nil
}
