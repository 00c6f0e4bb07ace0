package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/walk2school/rewards-backend/internal/core/domain"
	"github.com/walk2school/rewards-backend/internal/core/port"
	"github.com/walk2school/rewards-backend/internal/repository"
)

var userColumns = []string{
	"id",
	"username",
	"password_hash",
	"privileges",
	"session_token",
	"session_expires_at",
	"reset_token",
	"reset_expires_at",
	"curr_points",
	"profile",
	"last_heartbeat",
	"last_lat",
	"last_long",
	"created_at",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	pool    *pgxpool.Pool
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		pool:    pool,
		exec:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new user row. The unique index on username turns duplicate
// registrations into repository.ErrDuplicate instead of a second document.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	profile, err := marshalProfile(user.Profile)
	if err != nil {
		return err
	}

	stmt, args, err := r.builder.Insert("users").
		Columns("id", "username", "password_hash", "privileges", "curr_points", "profile", "created_at").
		Values(user.ID, user.Username, user.PasswordHash, nullIfEmpty(user.Privileges), user.CurrPoints, profile, user.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if mapped := mapPgError(err); mapped == repository.ErrDuplicate {
			return mapped
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByUsername retrieves a user by their unique username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

// GetByCredentials matches username and stored password hash in one lookup,
// so a bad username and a bad password are indistinguishable to callers.
func (r *UserRepository) GetByCredentials(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username, "password_hash": passwordHash})
}

// GetBySessionToken retrieves the user holding the given session token.
// Expiry is the caller's concern.
func (r *UserRepository) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"session_token": token})
}

// StoreSession overwrites the session info for the user, invalidating any
// previously issued token by replacement.
func (r *UserRepository) StoreSession(ctx context.Context, userID, token string, expiresAt time.Time) error {
	return r.updateOne(ctx, userID, map[string]any{
		"session_token":      token,
		"session_expires_at": expiresAt,
	})
}

// SetResetToken persists a password reset token and its expiry.
func (r *UserRepository) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	return r.updateOne(ctx, userID, map[string]any{
		"reset_token":      token,
		"reset_expires_at": expiresAt,
	})
}

// GetByResetToken retrieves the user holding a non-expired reset token.
func (r *UserRepository) GetByResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	return r.getOne(ctx, squirrel.And{
		squirrel.Eq{"reset_token": token},
		squirrel.Gt{"reset_expires_at": now},
	})
}

// ConsumeResetToken replaces the password hash and clears both reset fields in
// a single conditional update, so a token can only ever be redeemed once.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, token, newPasswordHash string, now time.Time) (string, error) {
	stmt, args, err := r.builder.Update("users").
		Set("password_hash", newPasswordHash).
		Set("reset_token", nil).
		Set("reset_expires_at", nil).
		Where(squirrel.And{
			squirrel.Eq{"reset_token": token},
			squirrel.Gt{"reset_expires_at": now},
		}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build consume reset token sql: %w", err)
	}

	var userID string
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&userID); err != nil {
		if err == pgx.ErrNoRows {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("consume reset token: %w", err)
	}

	return userID, nil
}

// SetProfile overwrites the free-form profile blob.
func (r *UserRepository) SetProfile(ctx context.Context, userID string, profile map[string]any) error {
	blob, err := marshalProfile(profile)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, userID, map[string]any{"profile": blob})
}

// SetPoints overwrites the user's point balance.
func (r *UserRepository) SetPoints(ctx context.Context, userID string, points int64) error {
	return r.updateOne(ctx, userID, map[string]any{"curr_points": points})
}

// ReplaceInventory swaps the user's entire inventory for the provided items.
func (r *UserRepository) ReplaceInventory(ctx context.Context, userID string, items []domain.InventoryItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace inventory: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	delStmt, delArgs, err := r.builder.Delete("inventory").Where(squirrel.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete inventory sql: %w", err)
	}
	if _, err := tx.Exec(ctx, delStmt, delArgs...); err != nil {
		return fmt.Errorf("delete inventory: %w", err)
	}

	for _, item := range items {
		insStmt, insArgs, err := r.builder.Insert("inventory").
			Columns("user_id", "name", "price", "url", "quantity", "description", "fulfilled").
			Values(userID, item.Name, item.Price, item.URL, item.Quantity, item.Description, item.Fulfilled).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert inventory sql: %w", err)
		}
		if _, err := tx.Exec(ctx, insStmt, insArgs...); err != nil {
			return fmt.Errorf("insert inventory item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace inventory: %w", err)
	}
	return nil
}

// ListInventory returns the user's inventory ordered by item name.
func (r *UserRepository) ListInventory(ctx context.Context, userID string) ([]domain.InventoryItem, error) {
	stmt, args, err := r.builder.
		Select("name", "price", "url", "quantity", "description", "fulfilled").
		From("inventory").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select inventory sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select inventory: %w", err)
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		var item domain.InventoryItem
		if err := rows.Scan(&item.Name, &item.Price, &item.URL, &item.Quantity, &item.Description, &item.Fulfilled); err != nil {
			return nil, fmt.Errorf("scan inventory item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// SetHeartbeat stamps the walking heartbeat and last known position.
func (r *UserRepository) SetHeartbeat(ctx context.Context, userID string, at time.Time, pos domain.Position) error {
	return r.updateOne(ctx, userID, map[string]any{
		"last_heartbeat": at,
		"last_lat":       pos.Lat,
		"last_long":      pos.Long,
	})
}

// ListAll returns every user ordered by point balance descending.
func (r *UserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("users").
		OrderBy("curr_points DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select users sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}

func (r *UserRepository) getOne(ctx context.Context, pred any) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("users").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	user, err := scanUser(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if mapped := mapPgError(err); mapped == repository.ErrNotFound {
			return nil, mapped
		}
		return nil, err
	}

	return user, nil
}

func (r *UserRepository) updateOne(ctx context.Context, userID string, values map[string]any) error {
	stmt, args, err := r.builder.Update("users").
		SetMap(values).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update user sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user       domain.User
		privileges *string
		profile    []byte
		lat        *float64
		long       *float64
	)

	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&privileges,
		&user.SessionToken,
		&user.SessionExpiresAt,
		&user.ResetToken,
		&user.ResetExpiresAt,
		&user.CurrPoints,
		&profile,
		&user.LastHeartbeat,
		&lat,
		&long,
		&user.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if privileges != nil {
		user.Privileges = *privileges
	}
	if len(profile) > 0 {
		if err := json.Unmarshal(profile, &user.Profile); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
	}
	if lat != nil && long != nil {
		user.LastPos = &domain.Position{Lat: *lat, Long: *long}
	}

	return &user, nil
}

func marshalProfile(profile map[string]any) ([]byte, error) {
	if profile == nil {
		return []byte("{}"), nil
	}
	blob, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return blob, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ port.UserRepository = (*UserRepository)(nil)
