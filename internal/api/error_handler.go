package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dinedorm/server/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Message string `json:"message"`
	Partial bool   `json:"partial,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"message": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, validation).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Message: fmt.Sprintf("%v", he.Message)}
	}

	var pf *domain.PartialFailureError
	if errors.As(err, &pf) {
		log.Error().
			Err(pf.Err).
			Str("workflow", pf.Workflow).
			Str("completed", pf.Completed).
			Str("failed", pf.Failed).
			Str("remedy", pf.Remedy).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("partial failure")
		return http.StatusInternalServerError, errorResponse{
			Message: fmt.Sprintf("%s partially completed: %s", pf.Workflow, pf.Remedy),
			Partial: true,
		}
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, errorResponse{Message: "unauthorized access"}
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, errorResponse{Message: "invalid or expired token"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Message: "forbidden access"}
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrMealNotFound),
		errors.Is(err, domain.ErrUpcomingMealNotFound),
		errors.Is(err, domain.ErrPackageNotFound),
		errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, domain.ErrPaymentNotFound):
		return http.StatusNotFound, errorResponse{Message: notFoundMessage(err)}
	case errors.Is(err, domain.ErrAlreadyLiked):
		return http.StatusBadRequest, errorResponse{Message: domain.ErrAlreadyLiked.Error()}
	case errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest, errorResponse{Message: domain.ErrInvalidID.Error()}
	case errors.Is(err, domain.ErrAlreadyPromoted):
		return http.StatusConflict, errorResponse{Message: domain.ErrAlreadyPromoted.Error()}
	case errors.Is(err, domain.ErrPaymentInProgress):
		return http.StatusConflict, errorResponse{Message: domain.ErrPaymentInProgress.Error()}
	case errors.Is(err, domain.ErrGateway):
		return http.StatusInternalServerError, errorResponse{Message: "payment gateway unavailable"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Message: "internal server error"}
}

func notFoundMessage(err error) string {
	for _, target := range []error{
		domain.ErrUserNotFound,
		domain.ErrMealNotFound,
		domain.ErrUpcomingMealNotFound,
		domain.ErrPackageNotFound,
		domain.ErrRequestNotFound,
		domain.ErrPaymentNotFound,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return "not found"
}
