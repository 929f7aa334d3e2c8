package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/dinedorm/server/internal/core/domain"
	"github.com/dinedorm/server/internal/core/ports"
)

// AdminChecker is the slice of the user service the admin gate needs.
type AdminChecker interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
}

// Admin allows only callers whose stored role is admin. It must run after
// Authenticated; a missing email means the chain was wired wrong and panics.
func Admin(users AdminChecker) Gate {
	return func(c echo.Context) error {
		email, ok := AuthEmail(c)
		if !ok {
			panic("middleware: Admin gate used without Authenticated")
		}

		admin, err := users.IsAdmin(c.Request().Context(), email)
		if err != nil {
			return err
		}
		if !admin {
			return domain.ErrForbidden
		}
		return nil
	}
}

// RequireAdmin is the only composition routes use for admin access.
func RequireAdmin(tokens ports.TokenService, users AdminChecker) echo.MiddlewareFunc {
	return Chain(Authenticated(tokens), Admin(users))
}

// RequireAuth guards routes that need any signed-in user.
func RequireAuth(tokens ports.TokenService) echo.MiddlewareFunc {
	return Chain(Authenticated(tokens))
}
