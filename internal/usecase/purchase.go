package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/walk2school/rewards-backend/internal/core/domain"
	"github.com/walk2school/rewards-backend/internal/core/port"
	"github.com/walk2school/rewards-backend/internal/repository"
)

var (
	// ErrListingHidden indicates the listing exists but is not for sale.
	ErrListingHidden = errors.New("listing not available")
	// ErrOutOfStock indicates the listing has no stock left.
	ErrOutOfStock = errors.New("listing out of stock")
	// ErrInsufficientPoints indicates the buyer's balance does not cover the price.
	ErrInsufficientPoints = errors.New("not enough points")
	// ErrOrderNotFound indicates no unfulfilled order matches the user/listing pair.
	ErrOrderNotFound = errors.New("order not found")
)

// PurchaseService executes purchases and order fulfillment.
type PurchaseService struct {
	sessions *SessionService
	shop     port.ShopRepository
	store    port.PurchaseStore
	events   port.EventPublisher
	log      *zap.Logger
	now      func() time.Time
}

// NewPurchaseService constructs a purchase service.
func NewPurchaseService(sessions *SessionService, shop port.ShopRepository, store port.PurchaseStore, events port.EventPublisher, log *zap.Logger) *PurchaseService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PurchaseService{
		sessions: sessions,
		shop:     shop,
		store:    store,
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the time source, primarily for tests.
func (s *PurchaseService) WithClock(now func() time.Time) *PurchaseService {
	if now != nil {
		s.now = now
	}
	return s
}

// Purchase buys one unit of the named listing for the session holder. Stock
// decrement, wallet debit, inventory upsert, and order insert run inside one
// transaction; a guard miss on any conditional write aborts the whole thing,
// so two buyers racing for the last unit cannot both win.
func (s *PurchaseService) Purchase(ctx context.Context, token, listingName string) (*domain.Order, error) {
	user, err := s.sessions.AuthenticateByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	listing, err := s.shop.GetByName(ctx, listingName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("lookup listing: %w", err)
	}

	// Pre-checks give precise errors; the in-transaction guards re-verify
	// under concurrency.
	if !listing.Visible {
		return nil, ErrListingHidden
	}
	if listing.Quantity <= 0 {
		return nil, ErrOutOfStock
	}
	if user.CurrPoints < listing.Price {
		return nil, ErrInsufficientPoints
	}

	order := domain.Order{
		ID:          uuid.NewString(),
		Username:    user.Username,
		Name:        listing.Name,
		Price:       listing.Price,
		URL:         listing.URL,
		Quantity:    1,
		Description: listing.Description,
		Fulfilled:   false,
		PlacedAt:    s.now().UTC(),
	}

	err = s.store.InTx(ctx, func(tx port.PurchaseStore) error {
		if err := tx.DecrementStock(ctx, listing.Name); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrOutOfStock
			}
			return err
		}
		if err := tx.DebitPoints(ctx, user.ID, listing.Price); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInsufficientPoints
			}
			return err
		}
		if err := tx.AddToInventory(ctx, user.ID, domain.InventoryItem{
			Name:        listing.Name,
			Price:       listing.Price,
			URL:         listing.URL,
			Quantity:    1,
			Description: listing.Description,
		}); err != nil {
			return err
		}
		return tx.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.publishPurchaseCompleted(ctx, user, order)

	return &order, nil
}

// FulfillOrder marks the oldest unfulfilled order for the user/listing pair
// as delivered and bumps the matching inventory fulfilled counter. The order
// row is locked for the duration of the transaction.
func (s *PurchaseService) FulfillOrder(ctx context.Context, username, listingName string) (*domain.Order, error) {
	var fulfilled *domain.Order

	err := s.store.InTx(ctx, func(tx port.PurchaseStore) error {
		order, err := tx.OldestUnfulfilledOrder(ctx, username, listingName)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if err := tx.MarkOrderFulfilled(ctx, order.ID); err != nil {
			return err
		}
		if err := tx.IncrementFulfilled(ctx, username, listingName); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// An order can exist without an inventory row if the client
				// rewrote its data blob. The order flip still counts.
				s.log.Warn("no inventory row for fulfilled order",
					zap.String("username", username),
					zap.String("listing", listingName),
				)
				return nil
			}
			return err
		}

		order.Fulfilled = true
		fulfilled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishOrderFulfilled(ctx, fulfilled)

	return fulfilled, nil
}

// ListOrders returns every order for the admin dashboard.
func (s *PurchaseService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func (s *PurchaseService) publishPurchaseCompleted(ctx context.Context, user *domain.User, order domain.Order) {
	if s.events == nil {
		return
	}
	event := domain.PurchaseCompletedEvent{
		EventID:  uuid.NewString(),
		UserID:   user.ID,
		Username: user.Username,
		Listing:  order.Name,
		Price:    order.Price,
		PlacedAt: order.PlacedAt,
	}
	if err := s.events.PublishPurchaseCompleted(ctx, event); err != nil {
		s.log.Warn("publish purchase completed event", zap.Error(err))
	}
}

func (s *PurchaseService) publishOrderFulfilled(ctx context.Context, order *domain.Order) {
	if s.events == nil || order == nil {
		return
	}
	event := domain.OrderFulfilledEvent{
		EventID:     uuid.NewString(),
		OrderID:     order.ID,
		Username:    order.Username,
		Listing:     order.Name,
		FulfilledAt: s.now().UTC(),
	}
	if err := s.events.PublishOrderFulfilled(ctx, event); err != nil {
		s.log.Warn("publish order fulfilled event", zap.Error(err))
	}
}
