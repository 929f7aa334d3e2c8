package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dinedorm/server/internal/api/middleware"
	"github.com/dinedorm/server/internal/core/domain"
)

// bindAndValidate decodes the body into req and runs its validate tags.
// Both failures surface as 400.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// authEmail returns the caller's email. Routes reaching it without the
// Authenticated gate get a 401 rather than an anonymous identity.
func authEmail(c echo.Context) (string, error) {
	email, ok := middleware.AuthEmail(c)
	if !ok {
		return "", domain.ErrUnauthorized
	}
	return email, nil
}

// requireSelf checks that email names the authenticated caller and returns it
// in the lowercase form used as the store key.
func requireSelf(c echo.Context, email string) (string, error) {
	caller, err := authEmail(c)
	if err != nil {
		return "", err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email != strings.ToLower(caller) {
		return "", domain.ErrForbidden
	}
	return email, nil
}
