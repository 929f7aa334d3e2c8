package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dinedorm/server/internal/core/domain"
	"github.com/dinedorm/server/internal/core/ports"
)

const emailKey = "email"

// Gate is one access check. A nil return lets the request through to the next gate.
type Gate func(c echo.Context) error

// Chain runs gates in order and stops at the first error, then calls the handler.
func Chain(gates ...Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, g := range gates {
				if err := g(c); err != nil {
					return err
				}
			}
			return next(c)
		}
	}
}

// Authenticated validates the bearer token and stores the caller's email in context.
func Authenticated(tokens ports.TokenService) Gate {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return domain.ErrUnauthorized
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return domain.ErrUnauthorized
		}

		identity, err := tokens.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			return err
		}

		c.Set(emailKey, identity.Email)
		return nil
	}
}

// AuthEmail returns the email stored by Authenticated, if any.
func AuthEmail(c echo.Context) (string, bool) {
	email, ok := c.Get(emailKey).(string)
	return email, ok && email != ""
}
