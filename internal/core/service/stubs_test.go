package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dinedorm/server/internal/core/domain"
	"github.com/dinedorm/server/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu        sync.Mutex
	byEmail   map[string]*domain.User
	createErr error
	findErr   error
	badgeErr  error
	badgeSets int
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{byEmail: make(map[string]*domain.User)}
	for _, u := range users {
		clone := *u
		r.byEmail[u.Email] = &clone
	}
	return r
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return "", r.createErr
	}
	if _, ok := r.byEmail[u.Email]; ok {
		return "", domain.ErrUserExists
	}
	clone := *u
	clone.ID = fmt.Sprintf("u%d", len(r.byEmail)+1)
	r.byEmail[u.Email] = &clone
	return clone.ID, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) List(_ context.Context, search string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.byEmail {
		if search == "" || strings.Contains(u.Email, search) || strings.Contains(u.Name, search) {
			clone := *u
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *stubUserRepo) SetRole(_ context.Context, id, role string) (domain.WriteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.ID == id {
			u.Role = role
			return domain.WriteResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	return domain.WriteResult{}, nil
}

// SetBadge mirrors the conditional update: a badge paid at or before the
// current one is kept.
func (r *stubUserRepo) SetBadge(_ context.Context, email, badge string, paidAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.badgeErr != nil {
		return false, r.badgeErr
	}
	u, ok := r.byEmail[email]
	if !ok {
		return false, domain.ErrUserNotFound
	}
	if !u.BadgePaidAt.IsZero() && !u.BadgePaidAt.Before(paidAt) {
		return false, nil
	}
	u.Badge = badge
	u.BadgePaidAt = paidAt
	r.badgeSets++
	return true, nil
}

func (r *stubUserRepo) remove(email string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byEmail, email)
}

func (r *stubUserRepo) badgeOf(email string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byEmail[email]; ok {
		return u.Badge
	}
	return ""
}

// ---------------------------------------------------------------------------
// Meals
// ---------------------------------------------------------------------------

type stubMealRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Meal
	seq       int
	createErr error
	reviewErr error
}

func newStubMealRepo(meals ...*domain.Meal) *stubMealRepo {
	r := &stubMealRepo{byID: make(map[string]*domain.Meal)}
	for _, m := range meals {
		clone := *m
		r.byID[m.ID] = &clone
	}
	return r
}

func (r *stubMealRepo) Create(_ context.Context, m *domain.Meal) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return "", r.createErr
	}
	if m.PromotedFrom != "" {
		for _, existing := range r.byID {
			if existing.PromotedFrom == m.PromotedFrom {
				return "", domain.ErrAlreadyPromoted
			}
		}
	}
	r.seq++
	clone := *m
	clone.ID = fmt.Sprintf("meal-%d", r.seq)
	r.byID[clone.ID] = &clone
	return clone.ID, nil
}

func (r *stubMealRepo) FindByID(_ context.Context, id string) (*domain.Meal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrMealNotFound
	}
	clone := *m
	clone.Likers = slices.Clone(m.Likers)
	return &clone, nil
}

func (r *stubMealRepo) List(_ context.Context, _ domain.MealFilter) ([]*domain.Meal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Meal, 0, len(r.byID))
	for _, m := range r.byID {
		clone := *m
		out = append(out, &clone)
	}
	return out, nil
}

// AddLike mirrors the conditional update: it only matches when user is not a liker.
func (r *stubMealRepo) AddLike(_ context.Context, id, user string) (domain.WriteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok || slices.Contains(m.Likers, user) {
		return domain.WriteResult{}, nil
	}
	m.Likes++
	m.Likers = append(m.Likers, user)
	return domain.WriteResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (r *stubMealRepo) IncrementReviewCount(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reviewErr != nil {
		return r.reviewErr
	}
	if m, ok := r.byID[id]; ok {
		m.ReviewCount++
	}
	return nil
}

func (r *stubMealRepo) ListPromotedSince(_ context.Context, since time.Time) ([]*domain.Meal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Meal
	for _, m := range r.byID {
		if m.PromotedFrom != "" && !m.PromotedAt.Before(since) {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}

type stubUpcomingRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Meal
	deleteErr error
}

func newStubUpcomingRepo(meals ...*domain.Meal) *stubUpcomingRepo {
	r := &stubUpcomingRepo{byID: make(map[string]*domain.Meal)}
	for _, m := range meals {
		clone := *m
		r.byID[m.ID] = &clone
	}
	return r
}

func (r *stubUpcomingRepo) Create(_ context.Context, m *domain.Meal) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *m
	clone.ID = fmt.Sprintf("up-%d", len(r.byID)+1)
	r.byID[clone.ID] = &clone
	return clone.ID, nil
}

func (r *stubUpcomingRepo) FindByID(_ context.Context, id string) (*domain.Meal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUpcomingMealNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *stubUpcomingRepo) List(_ context.Context) ([]*domain.Meal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Meal, 0, len(r.byID))
	for _, m := range r.byID {
		clone := *m
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubUpcomingRepo) Delete(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	if _, ok := r.byID[id]; !ok {
		return 0, nil
	}
	delete(r.byID, id)
	return 1, nil
}

// ---------------------------------------------------------------------------
// Payments
// ---------------------------------------------------------------------------

type stubPaymentRepo struct {
	mu        sync.Mutex
	payments  []*domain.Payment
	createErr error
	markErr   error
}

func (r *stubPaymentRepo) Create(_ context.Context, p *domain.Payment) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return "", r.createErr
	}
	if p.IdempotencyKey != "" {
		for _, existing := range r.payments {
			if existing.IdempotencyKey == p.IdempotencyKey {
				return "", domain.ErrDuplicateKey
			}
		}
	}
	clone := *p
	clone.ID = fmt.Sprintf("pay-%d", len(r.payments)+1)
	r.payments = append(r.payments, &clone)
	return clone.ID, nil
}

func (r *stubPaymentRepo) FindByIdempotencyKey(_ context.Context, key string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.IdempotencyKey == key {
			clone := *p
			return &clone, nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (r *stubPaymentRepo) ListByEmail(_ context.Context, email string) ([]*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Payment
	for _, p := range r.payments {
		if p.Email == email {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubPaymentRepo) SettleBadge(_ context.Context, id, outcome string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return r.markErr
	}
	for _, p := range r.payments {
		if p.ID == id {
			p.BadgeApplied = outcome == domain.BadgeOutcomeApplied
			p.BadgeOutcome = outcome
		}
	}
	return nil
}

func (r *stubPaymentRepo) ListBadgePending(_ context.Context, before time.Time) ([]*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Payment
	for _, p := range r.payments {
		if p.BadgeOutcome == "" && p.PaidAt.Before(before) {
			clone := *p
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubPaymentRepo) byID(id string) *domain.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ID == id {
			clone := *p
			return &clone
		}
	}
	return nil
}

func (r *stubPaymentRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payments)
}

type stubGateway struct {
	amount   int64
	currency string
	secret   string
	err      error
}

func (g *stubGateway) CreateIntent(_ context.Context, amount int64, currency string) (string, error) {
	g.amount = amount
	g.currency = currency
	return g.secret, g.err
}

type stubIdempotency struct {
	claimed  map[string]bool
	claimErr error
	released []string
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{claimed: make(map[string]bool)}
}

func (s *stubIdempotency) Claim(_ context.Context, key string) (bool, error) {
	if s.claimErr != nil {
		return false, s.claimErr
	}
	if s.claimed[key] {
		return false, nil
	}
	s.claimed[key] = true
	return true, nil
}

func (s *stubIdempotency) Release(_ context.Context, key string) error {
	delete(s.claimed, key)
	s.released = append(s.released, key)
	return nil
}

type stubRetryQueue struct {
	queued []ports.BadgeUpdate
}

func (q *stubRetryQueue) Enqueue(u ports.BadgeUpdate) {
	q.queued = append(q.queued, u)
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

type stubPackageRepo struct {
	packages []*domain.Package
}

func (r *stubPackageRepo) List(_ context.Context) ([]*domain.Package, error) {
	return r.packages, nil
}

func (r *stubPackageRepo) FindByName(_ context.Context, name string) (*domain.Package, error) {
	for _, p := range r.packages {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, domain.ErrPackageNotFound
}

type stubRequestRepo struct {
	requests []*domain.MealRequest
}

func (r *stubRequestRepo) Create(_ context.Context, req *domain.MealRequest) (string, error) {
	clone := *req
	clone.ID = fmt.Sprintf("req-%d", len(r.requests)+1)
	r.requests = append(r.requests, &clone)
	return clone.ID, nil
}

func (r *stubRequestRepo) ListByEmail(_ context.Context, email string) ([]*domain.MealRequest, error) {
	var out []*domain.MealRequest
	for _, req := range r.requests {
		if req.Email == email {
			out = append(out, req)
		}
	}
	return out, nil
}

func (r *stubRequestRepo) SetStatus(_ context.Context, id, status string) (domain.WriteResult, error) {
	for _, req := range r.requests {
		if req.ID == id {
			req.Status = status
			return domain.WriteResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	return domain.WriteResult{}, nil
}

type stubReviewRepo struct {
	reviews []*domain.Review
}

func (r *stubReviewRepo) Create(_ context.Context, rv *domain.Review) (string, error) {
	clone := *rv
	clone.ID = fmt.Sprintf("rev-%d", len(r.reviews)+1)
	r.reviews = append(r.reviews, &clone)
	return clone.ID, nil
}

func (r *stubReviewRepo) ListByMeal(_ context.Context, mealID string) ([]*domain.Review, error) {
	var out []*domain.Review
	for _, rv := range r.reviews {
		if rv.MealID == mealID {
			out = append(out, rv)
		}
	}
	return out, nil
}
