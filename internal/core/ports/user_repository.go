package ports

import (
	"context"
	"time"

	"github.com/dinedorm/server/internal/core/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create inserts a user and returns its new ID. Returns domain.ErrUserExists
	// when the email is already taken.
	Create(ctx context.Context, user *domain.User) (string, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// List returns all users, optionally filtered by a partial name/email match.
	List(ctx context.Context, search string) ([]*domain.User, error)
	SetRole(ctx context.Context, id, role string) (domain.WriteResult, error)
	// SetBadge sets the badge of the user identified by email unless the
	// current badge came from a payment made at or after paidAt. It reports
	// false when a newer badge was kept, and returns domain.ErrUserNotFound
	// when no user has that email.
	SetBadge(ctx context.Context, email, badge string, paidAt time.Time) (bool, error)
}
