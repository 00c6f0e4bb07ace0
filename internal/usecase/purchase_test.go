package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/walk2school/rewards-backend/internal/core/domain"
)

func purchaseFixture(t *testing.T, points, stock int64, visible bool) (*PurchaseService, *fakeUserRepo, *fakePurchaseStore, *fakePublisher) {
	t.Helper()

	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	user := userFixture("u1", "kid@example.com", "digest")
	user.CurrPoints = points
	repo := newFakeUserRepo(user)
	sessionFixture(repo, "u1", "tok", now)
	sessions := NewSessionService(repo).WithClock(fixedClock(now))

	shop := newFakeShopRepo(listingFixture("cap", 10, stock, visible))

	store := newFakePurchaseStore()
	store.stock["cap"] = stock
	store.points["u1"] = points

	events := &fakePublisher{}
	svc := NewPurchaseService(sessions, shop, store, events, nil).WithClock(fixedClock(now))
	return svc, repo, store, events
}

func TestPurchaseHappyPath(t *testing.T) {
	svc, _, store, events := purchaseFixture(t, 50, 3, true)

	order, err := svc.Purchase(context.Background(), "tok", "cap")
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	if order.Username != "kid@example.com" || order.Name != "cap" || order.Fulfilled {
		t.Fatalf("unexpected order %+v", order)
	}
	if store.stock["cap"] != 2 {
		t.Fatalf("expected stock 2, got %d", store.stock["cap"])
	}
	if store.points["u1"] != 40 {
		t.Fatalf("expected 40 points left, got %d", store.points["u1"])
	}
	item := store.inventory["u1"]["cap"]
	if item == nil || item.Quantity != 1 || item.Fulfilled != 0 {
		t.Fatalf("unexpected inventory item %+v", item)
	}
	if len(store.orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(store.orders))
	}
	if events.purchases != 1 {
		t.Fatalf("expected 1 purchase event, got %d", events.purchases)
	}
}

func TestPurchaseRepeatIncrementsQuantity(t *testing.T) {
	svc, _, store, _ := purchaseFixture(t, 50, 3, true)

	if _, err := svc.Purchase(context.Background(), "tok", "cap"); err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	if _, err := svc.Purchase(context.Background(), "tok", "cap"); err != nil {
		t.Fatalf("second purchase: %v", err)
	}

	item := store.inventory["u1"]["cap"]
	if item.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", item.Quantity)
	}
	if len(store.orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(store.orders))
	}
}

func TestPurchaseErrorCases(t *testing.T) {
	t.Run("unknown listing", func(t *testing.T) {
		svc, _, _, _ := purchaseFixture(t, 50, 3, true)
		if _, err := svc.Purchase(context.Background(), "tok", "ghost"); !errors.Is(err, ErrListingNotFound) {
			t.Fatalf("expected ErrListingNotFound, got %v", err)
		}
	})

	t.Run("hidden listing", func(t *testing.T) {
		svc, _, _, _ := purchaseFixture(t, 50, 3, false)
		if _, err := svc.Purchase(context.Background(), "tok", "cap"); !errors.Is(err, ErrListingHidden) {
			t.Fatalf("expected ErrListingHidden, got %v", err)
		}
	})

	t.Run("out of stock", func(t *testing.T) {
		svc, _, _, _ := purchaseFixture(t, 50, 0, true)
		if _, err := svc.Purchase(context.Background(), "tok", "cap"); !errors.Is(err, ErrOutOfStock) {
			t.Fatalf("expected ErrOutOfStock, got %v", err)
		}
	})

	t.Run("insufficient points", func(t *testing.T) {
		svc, _, _, _ := purchaseFixture(t, 5, 3, true)
		if _, err := svc.Purchase(context.Background(), "tok", "cap"); !errors.Is(err, ErrInsufficientPoints) {
			t.Fatalf("expected ErrInsufficientPoints, got %v", err)
		}
	})

	t.Run("invalid session", func(t *testing.T) {
		svc, _, _, _ := purchaseFixture(t, 50, 3, true)
		if _, err := svc.Purchase(context.Background(), "bogus", "cap"); !errors.Is(err, ErrInvalidSession) {
			t.Fatalf("expected ErrInvalidSession, got %v", err)
		}
	})
}

func TestPurchaseRollsBackOnGuardMiss(t *testing.T) {
	// The catalog row says one unit exists but the transactional store has
	// already sold it, so the in-transaction guard fires and everything rolls
	// back untouched.
	svc, _, store, events := purchaseFixture(t, 50, 1, true)
	store.stock["cap"] = 0

	if _, err := svc.Purchase(context.Background(), "tok", "cap"); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}

	if store.points["u1"] != 50 {
		t.Fatalf("points changed despite rollback: %d", store.points["u1"])
	}
	if len(store.inventory["u1"]) != 0 {
		t.Fatalf("inventory changed despite rollback: %+v", store.inventory["u1"])
	}
	if len(store.orders) != 0 {
		t.Fatalf("order created despite rollback: %+v", store.orders)
	}
	if events.purchases != 0 {
		t.Fatalf("event published despite rollback")
	}
}

func TestPurchaseRollsBackWhenDebitFails(t *testing.T) {
	svc, _, store, _ := purchaseFixture(t, 50, 3, true)
	store.points["u1"] = 5

	if _, err := svc.Purchase(context.Background(), "tok", "cap"); !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}
	if store.stock["cap"] != 3 {
		t.Fatalf("stock changed despite rollback: %d", store.stock["cap"])
	}
}

func TestFulfillOrderFlipsOldestFirst(t *testing.T) {
	svc, _, store, events := purchaseFixture(t, 50, 3, true)

	if _, err := svc.Purchase(context.Background(), "tok", "cap"); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	first := store.orders[0].ID
	store.orders = append(store.orders, domain.Order{
		ID:       "later",
		Username: "kid@example.com",
		Name:     "cap",
		PlacedAt: store.orders[0].PlacedAt.Add(time.Hour),
	})

	fulfilled, err := svc.FulfillOrder(context.Background(), "kid@example.com", "cap")
	if err != nil {
		t.Fatalf("fulfill order: %v", err)
	}
	if fulfilled.ID != first {
		t.Fatalf("expected oldest order %s fulfilled, got %s", first, fulfilled.ID)
	}
	if !store.orders[0].Fulfilled {
		t.Fatal("order row not flipped")
	}
	if store.inventory["u1"]["cap"].Fulfilled != 1 {
		t.Fatalf("fulfilled counter not incremented: %+v", store.inventory["u1"]["cap"])
	}
	if events.fulfillments != 1 {
		t.Fatalf("expected 1 fulfillment event, got %d", events.fulfillments)
	}
}

func TestFulfillOrderNoMatch(t *testing.T) {
	svc, _, _, _ := purchaseFixture(t, 50, 3, true)

	if _, err := svc.FulfillOrder(context.Background(), "kid@example.com", "cap"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestListOrders(t *testing.T) {
	svc, _, store, _ := purchaseFixture(t, 50, 3, true)

	orders, err := svc.ListOrders(context.Background())
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("expected no orders, got %d", len(orders))
	}

	if _, err := svc.Purchase(context.Background(), "tok", "cap"); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	orders, err = svc.ListOrders(context.Background())
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 || len(store.orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(orders))
	}
}
