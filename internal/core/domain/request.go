package domain

import "time"

const (
	RequestPending = "pending"
	RequestServed  = "served"
)

// MealRequest is a diner asking for a serving of a meal.
type MealRequest struct {
	ID          string    `json:"_id"`
	MealID      string    `json:"mealId"`
	MealTitle   string    `json:"mealTitle"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Review is a diner's rating of a meal.
type Review struct {
	ID        string    `json:"_id"`
	MealID    string    `json:"mealId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}
