package domain

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// DefaultBadge is granted on signup, before any package is purchased.
const DefaultBadge = "bronze"

// User models a registered diner. Email is the identity key.
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Photo     string    `json:"photo,omitempty"`
	Role      string    `json:"role"`
	Badge     string    `json:"badge"`
	CreatedAt time.Time `json:"createdAt"`

	// BadgePaidAt is the payment time of the purchase that granted Badge.
	BadgePaidAt time.Time `json:"-"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
