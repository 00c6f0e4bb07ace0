package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/walk2school/rewards-backend/internal/core/domain"
	"github.com/walk2school/rewards-backend/internal/core/port"
	"github.com/walk2school/rewards-backend/internal/repository"
)

// PurchaseRepository implements port.PurchaseStore using PostgreSQL. Every
// conditional write embeds its guard in the WHERE clause, so a stock or
// balance check and its mutation happen in one statement.
type PurchaseRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewPurchaseRepository wires a PostgreSQL-backed purchase store.
func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// withTx returns a repository instance operating within the supplied transaction.
func (r *PurchaseRepository) withTx(tx pgx.Tx) *PurchaseRepository {
	return &PurchaseRepository{
		pool:    r.pool,
		exec:    tx,
		builder: r.builder,
	}
}

// InTx runs fn against a transaction-bound store, committing on success and
// rolling back on any error.
func (r *PurchaseRepository) InTx(ctx context.Context, fn func(port.PurchaseStore) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin purchase tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(r.withTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit purchase tx: %w", err)
	}
	return nil
}

// DecrementStock drops the listing's stock by one while it is still positive.
func (r *PurchaseRepository) DecrementStock(ctx context.Context, listingName string) error {
	stmt, args, err := r.builder.Update("shop_listings").
		Set("quantity", squirrel.Expr("quantity - 1")).
		Where(squirrel.And{
			squirrel.Eq{"name": listingName},
			squirrel.Gt{"quantity": 0},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build decrement stock sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DebitPoints subtracts amount from the user's balance while it still covers it.
func (r *PurchaseRepository) DebitPoints(ctx context.Context, userID string, amount int64) error {
	stmt, args, err := r.builder.Update("users").
		Set("curr_points", squirrel.Expr("curr_points - ?", amount)).
		Where(squirrel.And{
			squirrel.Eq{"id": userID},
			squirrel.GtOrEq{"curr_points": amount},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build debit points sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("debit points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// AddToInventory inserts the item with quantity 1 on first purchase, or bumps
// the owned quantity on conflict. One statement covers both paths.
func (r *PurchaseRepository) AddToInventory(ctx context.Context, userID string, item domain.InventoryItem) error {
	stmt, args, err := r.builder.Insert("inventory").
		Columns("user_id", "name", "price", "url", "quantity", "description", "fulfilled").
		Values(userID, item.Name, item.Price, item.URL, 1, item.Description, 0).
		Suffix("ON CONFLICT (user_id, name) DO UPDATE SET quantity = inventory.quantity + 1").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert inventory sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("upsert inventory: %w", err)
	}

	return nil
}

// CreateOrder appends an immutable order record.
func (r *PurchaseRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	stmt, args, err := r.builder.Insert("orders").
		Columns("id", "username", "name", "price", "url", "quantity", "description", "fulfilled", "placed_at").
		Values(order.ID, order.Username, order.Name, order.Price, order.URL, order.Quantity, order.Description, order.Fulfilled, order.PlacedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert order sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

// OldestUnfulfilledOrder locks and returns the earliest open order for the
// user/listing pair, so concurrent fulfillments cannot flip the same order.
func (r *PurchaseRepository) OldestUnfulfilledOrder(ctx context.Context, username, listingName string) (*domain.Order, error) {
	stmt, args, err := r.builder.
		Select("id", "username", "name", "price", "url", "quantity", "description", "fulfilled", "placed_at").
		From("orders").
		Where(squirrel.Eq{"username": username, "name": listingName, "fulfilled": false}).
		OrderBy("placed_at ASC").
		Limit(1).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select order sql: %w", err)
	}

	var order domain.Order
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&order.ID,
		&order.Username,
		&order.Name,
		&order.Price,
		&order.URL,
		&order.Quantity,
		&order.Description,
		&order.Fulfilled,
		&order.PlacedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	return &order, nil
}

// MarkOrderFulfilled flips the order's fulfilled flag from false to true.
func (r *PurchaseRepository) MarkOrderFulfilled(ctx context.Context, orderID string) error {
	stmt, args, err := r.builder.Update("orders").
		Set("fulfilled", true).
		Where(squirrel.Eq{"id": orderID, "fulfilled": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build fulfill order sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("fulfill order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// IncrementFulfilled bumps the delivered counter on the user's inventory row.
func (r *PurchaseRepository) IncrementFulfilled(ctx context.Context, username, listingName string) error {
	stmt, args, err := r.builder.Update("inventory").
		Set("fulfilled", squirrel.Expr("fulfilled + 1")).
		Where(squirrel.And{
			squirrel.Eq{"name": listingName},
			squirrel.Expr("user_id = (SELECT id FROM users WHERE username = ?)", username),
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build increment fulfilled sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("increment fulfilled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListOrders returns every order, newest first.
func (r *PurchaseRepository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	stmt, args, err := r.builder.
		Select("id", "username", "name", "price", "url", "quantity", "description", "fulfilled", "placed_at").
		From("orders").
		OrderBy("placed_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select orders sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.Username,
			&order.Name,
			&order.Price,
			&order.URL,
			&order.Quantity,
			&order.Description,
			&order.Fulfilled,
			&order.PlacedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

var _ port.PurchaseStore = (*PurchaseRepository)(nil)
