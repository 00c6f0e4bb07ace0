package port

import (
	"context"
	"time"

	"github.com/walk2school/rewards-backend/internal/core/domain"
)

// UserRepository persists user accounts, sessions, and profile state.
type UserRepository interface {
	// Create inserts a new user row. Returns repository.ErrDuplicate when the
	// username is already taken (enforced by a unique constraint, not a
	// read-then-write check).
	Create(ctx context.Context, user domain.User) error

	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByCredentials matches username plus the stored password hash in a
	// single lookup. Returns repository.ErrNotFound on any mismatch.
	GetByCredentials(ctx context.Context, username, passwordHash string) (*domain.User, error)

	GetBySessionToken(ctx context.Context, token string) (*domain.User, error)

	// StoreSession overwrites the user's session info, implicitly invalidating
	// any prior token.
	StoreSession(ctx context.Context, userID, token string, expiresAt time.Time) error

	SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error

	GetByResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error)

	// ConsumeResetToken atomically replaces the password hash and clears both
	// reset fields for the user holding a non-expired matching token. Returns
	// repository.ErrNotFound when no row qualified (unknown or expired token).
	ConsumeResetToken(ctx context.Context, token, newPasswordHash string, now time.Time) (userID string, err error)

	SetProfile(ctx context.Context, userID string, profile map[string]any) error
	SetPoints(ctx context.Context, userID string, points int64) error
	ReplaceInventory(ctx context.Context, userID string, items []domain.InventoryItem) error
	ListInventory(ctx context.Context, userID string) ([]domain.InventoryItem, error)

	SetHeartbeat(ctx context.Context, userID string, at time.Time, pos domain.Position) error

	// ListAll returns every user ordered by points descending; callers derive
	// leaderboard and presence views from it.
	ListAll(ctx context.Context) ([]domain.User, error)
}
