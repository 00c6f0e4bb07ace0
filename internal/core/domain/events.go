package domain

import "time"

// AccountCreatedEvent is published when a new account is registered.
type AccountCreatedEvent struct {
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// PasswordResetRequestedEvent is published when a reset email is dispatched.
type PasswordResetRequestedEvent struct {
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	RequestedAt time.Time `json:"requested_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// PasswordChangedEvent is published when a reset token is successfully redeemed.
type PasswordChangedEvent struct {
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	ChangedAt time.Time `json:"changed_at"`
}

// PurchaseCompletedEvent is published after a purchase commits.
type PurchaseCompletedEvent struct {
	EventID  string    `json:"event_id"`
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Listing  string    `json:"listing"`
	Price    int64     `json:"price"`
	PlacedAt time.Time `json:"placed_at"`
}

// OrderFulfilledEvent is published when an admin marks an order delivered.
type OrderFulfilledEvent struct {
	EventID     string    `json:"event_id"`
	OrderID     string    `json:"order_id"`
	Username    string    `json:"username"`
	Listing     string    `json:"listing"`
	FulfilledAt time.Time `json:"fulfilled_at"`
}
