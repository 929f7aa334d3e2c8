package domain

import "time"

// Badge outcomes recorded on a payment once its badge step is settled.
const (
	BadgeOutcomeApplied    = "applied"
	BadgeOutcomeSuperseded = "superseded"
	BadgeOutcomeNoUser     = "no_user"
)

// Payment is a completed package purchase. Everything except BadgeApplied and
// BadgeOutcome is write-once. An empty BadgeOutcome means the badge is pending.
type Payment struct {
	ID             string    `json:"_id"`
	Email          string    `json:"email"`
	Amount         float64   `json:"amount"`
	Badge          string    `json:"badge"`
	TransactionID  string    `json:"transactionId"`
	IdempotencyKey string    `json:"-"`
	PaidAt         time.Time `json:"paidAt"`
	BadgeApplied   bool      `json:"badgeApplied"`
	BadgeOutcome   string    `json:"badgeOutcome,omitempty"`
}

// Package is a purchasable membership tier.
type Package struct {
	ID       string   `json:"_id"`
	Name     string   `json:"name"`
	Badge    string   `json:"badge"`
	Price    float64  `json:"price"`
	Benefits []string `json:"benefits"`
}
