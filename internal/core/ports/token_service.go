package ports

import "time"

// Identity is the verified content of an access token.
type Identity struct {
	Email     string
	ExpiresAt time.Time
}

// TokenService issues and verifies signed, time-limited access tokens.
type TokenService interface {
	Issue(email string) (string, error)
	// Verify returns domain.ErrInvalidToken for malformed, forged or expired tokens.
	Verify(token string) (*Identity, error)
}
