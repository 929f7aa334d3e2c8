package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("access forbidden")
	ErrInvalidID    = errors.New("invalid identifier")

	ErrUserNotFound         = errors.New("user not found")
	ErrMealNotFound         = errors.New("meal not found")
	ErrUpcomingMealNotFound = errors.New("upcoming meal not found")
	ErrPackageNotFound      = errors.New("package not found")
	ErrRequestNotFound      = errors.New("meal request not found")
	ErrPaymentNotFound      = errors.New("payment not found")

	ErrUserExists        = errors.New("user already exists")
	ErrAlreadyLiked      = errors.New("meal already liked by this user")
	ErrAlreadyPromoted   = errors.New("upcoming meal already promoted")
	ErrPaymentInProgress = errors.New("payment with this idempotency key is in progress")
	ErrDuplicateKey      = errors.New("duplicate key")

	ErrGateway        = errors.New("payment gateway error")
	ErrPartialFailure = errors.New("partial failure")
)

// PartialFailureError reports a two-write workflow where the first write
// landed and the second did not. Remedy tells an operator how to reconcile.
type PartialFailureError struct {
	Workflow  string
	Completed string
	Failed    string
	Remedy    string
	Err       error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: %s succeeded but %s failed: %v", e.Workflow, e.Completed, e.Failed, e.Err)
}

func (e *PartialFailureError) Unwrap() []error {
	return []error{ErrPartialFailure, e.Err}
}
