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

// ShopRepository implements port.ShopRepository using PostgreSQL.
type ShopRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewShopRepository wires a PostgreSQL-backed shop repository.
func NewShopRepository(pool *pgxpool.Pool) *ShopRepository {
	return &ShopRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// List returns listings, optionally filtered to visible ones.
func (r *ShopRepository) List(ctx context.Context, visibleOnly bool) ([]domain.Listing, error) {
	query := r.builder.
		Select("id", "name", "price", "url", "quantity", "description", "visible").
		From("shop_listings").
		OrderBy("name ASC")
	if visibleOnly {
		query = query.Where(squirrel.Eq{"visible": true})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select listings sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select listings: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := rows.Scan(&l.ID, &l.Name, &l.Price, &l.URL, &l.Quantity, &l.Description, &l.Visible); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, l)
	}

	return listings, rows.Err()
}

// GetByName retrieves a listing by its unique name.
func (r *ShopRepository) GetByName(ctx context.Context, name string) (*domain.Listing, error) {
	stmt, args, err := r.builder.
		Select("id", "name", "price", "url", "quantity", "description", "visible").
		From("shop_listings").
		Where(squirrel.Eq{"name": name}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select listing sql: %w", err)
	}

	var l domain.Listing
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&l.ID, &l.Name, &l.Price, &l.URL, &l.Quantity, &l.Description, &l.Visible); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan listing: %w", err)
	}

	return &l, nil
}

// Create inserts a new listing row.
func (r *ShopRepository) Create(ctx context.Context, listing domain.Listing) error {
	stmt, args, err := r.builder.Insert("shop_listings").
		Columns("id", "name", "price", "url", "quantity", "description", "visible").
		Values(listing.ID, listing.Name, listing.Price, listing.URL, listing.Quantity, listing.Description, listing.Visible).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert listing sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if mapped := mapPgError(err); mapped == repository.ErrDuplicate {
			return mapped
		}
		return fmt.Errorf("insert listing: %w", err)
	}

	return nil
}

// UpdateByName overwrites the mutable fields of the named listing.
func (r *ShopRepository) UpdateByName(ctx context.Context, listing domain.Listing) error {
	stmt, args, err := r.builder.Update("shop_listings").
		Set("price", listing.Price).
		Set("url", listing.URL).
		Set("quantity", listing.Quantity).
		Set("description", listing.Description).
		Set("visible", listing.Visible).
		Where(squirrel.Eq{"name": listing.Name}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update listing sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeleteByName removes the named listing.
func (r *ShopRepository) DeleteByName(ctx context.Context, name string) error {
	stmt, args, err := r.builder.Delete("shop_listings").
		Where(squirrel.Eq{"name": name}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete listing sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.ShopRepository = (*ShopRepository)(nil)
