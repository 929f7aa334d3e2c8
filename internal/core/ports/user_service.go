package ports

import (
	"context"

	"github.com/dinedorm/server/internal/core/domain"
)

// SignupInput carries the profile sent on first login.
type SignupInput struct {
	Name  string
	Email string
	Photo string
}

// SignupResult mirrors the store acknowledgment. InsertedID is empty when the
// email was already registered.
type SignupResult struct {
	Message    string
	InsertedID string
}

type UserService interface {
	Signup(ctx context.Context, input SignupInput) (*SignupResult, error)
	List(ctx context.Context, search string) ([]*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	IsAdmin(ctx context.Context, email string) (bool, error)
	MakeAdmin(ctx context.Context, id string) (domain.WriteResult, error)
}
