package usecase

import (
	"context"
	"errors"
	"fmt"

	uuid "github.com/google/uuid"

	"github.com/walk2school/rewards-backend/internal/core/domain"
	"github.com/walk2school/rewards-backend/internal/core/port"
	"github.com/walk2school/rewards-backend/internal/repository"
)

var (
	// ErrListingNotFound indicates no listing matches the name.
	ErrListingNotFound = errors.New("listing not found")
	// ErrListingExists indicates a listing with the name already exists.
	ErrListingExists = errors.New("listing already exists")
)

// CatalogService manages the shop catalog.
type CatalogService struct {
	sessions *SessionService
	shop     port.ShopRepository
}

// NewCatalogService constructs a catalog service.
func NewCatalogService(sessions *SessionService, shop port.ShopRepository) *CatalogService {
	return &CatalogService{sessions: sessions, shop: shop}
}

// ListItems returns the catalog. Holders of a valid admin session see hidden
// listings too; everyone else gets the visible subset. An invalid or absent
// token is not an error here, it just narrows the view.
func (s *CatalogService) ListItems(ctx context.Context, token string) ([]domain.Listing, error) {
	visibleOnly := true
	if token != "" {
		if user, err := s.sessions.AuthenticateByToken(ctx, token); err == nil && user.IsAdmin() {
			visibleOnly = false
		}
	}

	listings, err := s.shop.List(ctx, visibleOnly)
	if err != nil {
		return nil, fmt.Errorf("list shop items: %w", err)
	}
	if listings == nil {
		listings = []domain.Listing{}
	}

	return listings, nil
}

// AddListing inserts a new catalog entry. Name uniqueness is enforced by the
// insert itself.
func (s *CatalogService) AddListing(ctx context.Context, listing domain.Listing) error {
	if listing.Name == "" {
		return fmt.Errorf("listing name is required")
	}
	if listing.ID == "" {
		listing.ID = uuid.NewString()
	}

	if err := s.shop.Create(ctx, listing); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrListingExists
		}
		return fmt.Errorf("create listing: %w", err)
	}

	return nil
}

// UpdateListing overwrites the named listing's fields.
func (s *CatalogService) UpdateListing(ctx context.Context, listing domain.Listing) error {
	if listing.Name == "" {
		return fmt.Errorf("listing name is required")
	}

	if err := s.shop.UpdateByName(ctx, listing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrListingNotFound
		}
		return fmt.Errorf("update listing: %w", err)
	}

	return nil
}

// DeleteListing removes the named listing.
func (s *CatalogService) DeleteListing(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("listing name is required")
	}

	if err := s.shop.DeleteByName(ctx, name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrListingNotFound
		}
		return fmt.Errorf("delete listing: %w", err)
	}

	return nil
}
