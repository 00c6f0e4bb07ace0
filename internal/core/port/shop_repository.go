package port

import (
	"context"

	"github.com/walk2school/rewards-backend/internal/core/domain"
)

// ShopRepository manages shop catalog listings.
type ShopRepository interface {
	// List returns listings; when visibleOnly is set, hidden listings are
	// filtered out server-side.
	List(ctx context.Context, visibleOnly bool) ([]domain.Listing, error)

	GetByName(ctx context.Context, name string) (*domain.Listing, error)

	// Create inserts a listing. Returns repository.ErrDuplicate when a listing
	// with the same name exists.
	Create(ctx context.Context, listing domain.Listing) error

	// UpdateByName overwrites the mutable fields of the named listing. Returns
	// repository.ErrNotFound when no listing matched.
	UpdateByName(ctx context.Context, listing domain.Listing) error

	// DeleteByName removes the named listing. Returns repository.ErrNotFound
	// when no listing matched.
	DeleteByName(ctx context.Context, name string) error
}
