package domain

import (
	"slices"
	"time"
)

// Distributor is the hostel staff member who posted a meal.
type Distributor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Meal is stored in both the meals and upcomingMeals collections.
// Likes always equals len(Likers).
type Meal struct {
	ID           string      `json:"_id"`
	Title        string      `json:"title"`
	Category     string      `json:"category"`
	Image        string      `json:"image"`
	Price        float64     `json:"price"`
	Description  string      `json:"description"`
	Ingredients  []string    `json:"ingredients"`
	Rating       float64     `json:"rating"`
	Distributor  Distributor `json:"distributor"`
	PostedAt     time.Time   `json:"postedAt"`
	Likes        int         `json:"likes"`
	Likers       []string    `json:"likers"`
	ReviewCount  int         `json:"reviewCount"`
	PromotedFrom string      `json:"promotedFrom,omitempty"`
	PromotedAt   time.Time   `json:"promotedAt,omitzero"`
}

// LikedBy reports whether user is already in the liker set.
func (m *Meal) LikedBy(user string) bool {
	return slices.Contains(m.Likers, user)
}

// Promoted returns a copy of an upcoming meal ready to be inserted into the
// active collection. The ID is cleared so the store assigns a fresh one.
func (m *Meal) Promoted() *Meal {
	out := *m
	out.ID = ""
	out.PromotedFrom = m.ID
	out.Ingredients = slices.Clone(m.Ingredients)
	out.Likers = slices.Clone(m.Likers)
	out.Likes = len(out.Likers)
	return &out
}

// MealFilter narrows meal listings. Empty fields are ignored.
type MealFilter struct {
	Category string
	Search   string
}

// WriteResult echoes a store write acknowledgment back to the caller.
type WriteResult struct {
	InsertedID    string `json:"insertedId,omitempty"`
	MatchedCount  int64  `json:"matchedCount,omitempty"`
	ModifiedCount int64  `json:"modifiedCount,omitempty"`
	DeletedCount  int64  `json:"deletedCount,omitempty"`
}
