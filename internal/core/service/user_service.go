package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dinedorm/server/internal/core/domain"
	"github.com/dinedorm/server/internal/core/ports"
)

type UserService struct {
	repo   ports.UserRepository
	logger zerolog.Logger
}

func NewUserService(repo ports.UserRepository, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// Signup registers a user on first login. A repeated signup for the same email
// is a no-op that reports no insertion rather than an error.
func (s *UserService) Signup(ctx context.Context, input ports.SignupInput) (*ports.SignupResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	_, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return &ports.SignupResult{Message: "user already exists"}, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("signup: %w", err)
	}

	user := &domain.User{
		Name:      input.Name,
		Email:     email,
		Photo:     input.Photo,
		Role:      domain.RoleMember,
		Badge:     domain.DefaultBadge,
		CreatedAt: time.Now().UTC(),
	}

	id, err := s.repo.Create(ctx, user)
	if err != nil {
		// lost a race with a concurrent signup for the same email
		if errors.Is(err, domain.ErrUserExists) {
			return &ports.SignupResult{Message: "user already exists"}, nil
		}
		return nil, fmt.Errorf("signup: %w", err)
	}

	s.logger.Info().Str("email", email).Str("user_id", id).Msg("user registered")
	return &ports.SignupResult{Message: "user created", InsertedID: id}, nil
}

func (s *UserService) List(ctx context.Context, search string) ([]*domain.User, error) {
	return s.repo.List(ctx, strings.TrimSpace(search))
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.FindByEmail(ctx, email)
}

// IsAdmin reports whether the user with email holds the admin role. Unknown
// users are simply not admins.
func (s *UserService) IsAdmin(ctx context.Context, email string) (bool, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsAdmin(), nil
}

func (s *UserService) MakeAdmin(ctx context.Context, id string) (domain.WriteResult, error) {
	res, err := s.repo.SetRole(ctx, id, domain.RoleAdmin)
	if err != nil {
		return domain.WriteResult{}, fmt.Errorf("make admin: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.WriteResult{}, domain.ErrUserNotFound
	}
	s.logger.Info().Str("user_id", id).Msg("user promoted to admin")
	return res, nil
}
