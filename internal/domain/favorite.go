package domain

import "time"

// Favorite links a user to a property they starred. One row per
// (user, property) pair; toggling an existing pair removes it.
type Favorite struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	PropertyID int64     `json:"property_id"`
	AddedAt    time.Time `json:"added_at"`
}

// FavoriteWithProperty is a list row with the property joined in.
type FavoriteWithProperty struct {
	Favorite
	Property Property `json:"property"`
}
