package domain

import "time"

// Order is an immutable purchase record. Only Fulfilled may change, and only
// from false to true when an admin marks the item delivered.
type Order struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	URL         string    `json:"url"`
	Quantity    int64     `json:"quantity"`
	Description string    `json:"description"`
	Fulfilled   bool      `json:"fulfilled"`
	PlacedAt    time.Time `json:"date"`
}
