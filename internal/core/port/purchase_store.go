package port

import (
	"context"

	"github.com/walk2school/rewards-backend/internal/core/domain"
)

// PurchaseStore groups the writes that make up a purchase or a fulfillment.
// InTx runs the callback against a store bound to one database transaction so
// the step sequence commits or aborts as a unit; every conditional write
// reports repository.ErrNotFound when its guard did not match, which rolls the
// whole transaction back.
type PurchaseStore interface {
	InTx(ctx context.Context, fn func(PurchaseStore) error) error

	// DecrementStock applies an atomic decrement-with-floor: quantity drops by
	// one only while it is still positive.
	DecrementStock(ctx context.Context, listingName string) error

	// DebitPoints subtracts amount from the user's balance only while the
	// balance covers it.
	DebitPoints(ctx context.Context, userID string, amount int64) error

	// AddToInventory upserts the inventory row: first purchase inserts with
	// quantity 1 and fulfilled 0, repeat purchases increment quantity.
	AddToInventory(ctx context.Context, userID string, item domain.InventoryItem) error

	CreateOrder(ctx context.Context, order domain.Order) error

	// OldestUnfulfilledOrder locks and returns the earliest unfulfilled order
	// for the user/listing pair.
	OldestUnfulfilledOrder(ctx context.Context, username, listingName string) (*domain.Order, error)

	MarkOrderFulfilled(ctx context.Context, orderID string) error

	// IncrementFulfilled bumps the fulfilled counter on the matching inventory
	// row by one.
	IncrementFulfilled(ctx context.Context, username, listingName string) error

	ListOrders(ctx context.Context) ([]domain.Order, error)
}
