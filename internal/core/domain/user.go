package domain

import "time"

// PrivilegeAdmin marks accounts allowed to manage the shop and orders.
const PrivilegeAdmin = "admin"

// User mirrors the persisted representation in the users table.
// The username doubles as the account's email address.
type User struct {
	ID               string
	Username         string
	PasswordHash     string
	Privileges       string
	SessionToken     *string
	SessionExpiresAt *time.Time
	ResetToken       *string
	ResetExpiresAt   *time.Time
	CurrPoints       int64
	Profile          map[string]any
	LastHeartbeat    *time.Time
	LastPos          *Position
	CreatedAt        time.Time
}

// IsAdmin reports whether the user holds admin privileges.
func (u User) IsAdmin() bool {
	return u.Privileges == PrivilegeAdmin
}

// HasActiveSession reports whether the stored session info is structurally
// complete and not yet expired at the provided instant.
func (u User) HasActiveSession(at time.Time) bool {
	if u.SessionToken == nil || *u.SessionToken == "" || u.SessionExpiresAt == nil {
		return false
	}
	return u.SessionExpiresAt.After(at)
}

// Position is a recorded latitude/longitude pair.
type Position struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// InventoryItem is one owned shop item inside a user's inventory.
// Quantity counts purchases; Fulfilled counts physical deliveries.
// Fulfilled <= Quantity is the intended relationship but is not enforced.
type InventoryItem struct {
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	URL         string `json:"url"`
	Quantity    int64  `json:"quantity"`
	Description string `json:"description"`
	Fulfilled   int64  `json:"fulfilled"`
}
