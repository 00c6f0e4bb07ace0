package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/walk2school/rewards-backend/internal/core/domain"
)

func listingFixture(name string, price, quantity int64, visible bool) domain.Listing {
	return domain.Listing{
		ID:       "listing-" + name,
		Name:     name,
		Price:    price,
		Quantity: quantity,
		Visible:  visible,
	}
}

func TestListItemsVisibilityByRole(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	admin := userFixture("a1", "teacher@example.com", "digest")
	admin.Privileges = "admin"
	repo := newFakeUserRepo(admin)
	sessionFixture(repo, "a1", "admin-tok", now)
	sessions := NewSessionService(repo).WithClock(fixedClock(now))

	shop := newFakeShopRepo(
		listingFixture("cap", 10, 5, true),
		listingFixture("secret", 99, 1, false),
	)
	svc := NewCatalogService(sessions, shop)

	public, err := svc.ListItems(context.Background(), "")
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(public) != 1 || public[0].Name != "cap" {
		t.Fatalf("expected only visible listings, got %+v", public)
	}

	// A bogus token narrows to the public view instead of failing.
	narrowed, err := svc.ListItems(context.Background(), "bogus")
	if err != nil {
		t.Fatalf("list items with bad token: %v", err)
	}
	if len(narrowed) != 1 {
		t.Fatalf("expected public view for bad token, got %+v", narrowed)
	}

	all, err := svc.ListItems(context.Background(), "admin-tok")
	if err != nil {
		t.Fatalf("list items as admin: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected hidden listings for admin, got %+v", all)
	}
}

func TestAddListingDuplicate(t *testing.T) {
	shop := newFakeShopRepo(listingFixture("cap", 10, 5, true))
	svc := NewCatalogService(NewSessionService(newFakeUserRepo()), shop)

	if err := svc.AddListing(context.Background(), listingFixture("cap", 20, 1, true)); !errors.Is(err, ErrListingExists) {
		t.Fatalf("expected ErrListingExists, got %v", err)
	}
	if err := svc.AddListing(context.Background(), listingFixture("scarf", 20, 1, true)); err != nil {
		t.Fatalf("add listing: %v", err)
	}
}

func TestUpdateListingByName(t *testing.T) {
	shop := newFakeShopRepo(listingFixture("cap", 10, 5, true))
	svc := NewCatalogService(NewSessionService(newFakeUserRepo()), shop)

	updated := listingFixture("cap", 15, 3, false)
	if err := svc.UpdateListing(context.Background(), updated); err != nil {
		t.Fatalf("update listing: %v", err)
	}
	stored := shop.listings["cap"]
	if stored.Price != 15 || stored.Quantity != 3 || stored.Visible {
		t.Fatalf("update not applied: %+v", stored)
	}

	if err := svc.UpdateListing(context.Background(), listingFixture("ghost", 1, 1, true)); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
}

func TestDeleteListing(t *testing.T) {
	shop := newFakeShopRepo(listingFixture("cap", 10, 5, true))
	svc := NewCatalogService(NewSessionService(newFakeUserRepo()), shop)

	if err := svc.DeleteListing(context.Background(), "cap"); err != nil {
		t.Fatalf("delete listing: %v", err)
	}
	if err := svc.DeleteListing(context.Background(), "cap"); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
}
