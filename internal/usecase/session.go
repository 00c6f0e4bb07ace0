package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/walk2school/rewards-backend/internal/core/domain"
	"github.com/walk2school/rewards-backend/internal/core/port"
	"github.com/walk2school/rewards-backend/internal/infra/security"
	"github.com/walk2school/rewards-backend/internal/repository"
)

const defaultSessionTTL = 7 * 24 * time.Hour

var (
	// ErrInvalidCredentials indicates the username/password pair matched no
	// account. Unknown user and wrong password are deliberately
	// indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidSession indicates the session token is unknown, incomplete, or expired.
	ErrInvalidSession = errors.New("invalid session")
	// ErrAdminRequired indicates the session holder lacks admin privileges.
	ErrAdminRequired = errors.New("admin privileges required")
)

// SessionService issues and validates session tokens.
type SessionService struct {
	users      port.UserRepository
	sessionTTL time.Duration
	now        func() time.Time
}

// NewSessionService constructs a session service with the default week-long TTL.
func NewSessionService(users port.UserRepository) *SessionService {
	return &SessionService{
		users:      users,
		sessionTTL: defaultSessionTTL,
		now:        time.Now,
	}
}

// WithTTL overrides the session lifetime.
func (s *SessionService) WithTTL(ttl time.Duration) *SessionService {
	if ttl > 0 {
		s.sessionTTL = ttl
	}
	return s
}

// WithClock overrides the time source, primarily for tests.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	if now != nil {
		s.now = now
	}
	return s
}

// Authenticate matches the username against the stored password digest and,
// on success, issues a fresh session token. Any previously issued token for
// the account stops working because the stored session is overwritten.
func (s *SessionService) Authenticate(ctx context.Context, username, hashedPassword string) (string, error) {
	if username == "" || hashedPassword == "" {
		return "", ErrInvalidCredentials
	}

	user, err := s.users.GetByCredentials(ctx, username, hashedPassword)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup credentials: %w", err)
	}

	token, err := security.GenerateToken()
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}

	expiresAt := s.now().UTC().Add(s.sessionTTL)
	if err := s.users.StoreSession(ctx, user.ID, token, expiresAt); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return token, nil
}

// AuthenticateRaw hashes the plaintext password and delegates to Authenticate.
func (s *SessionService) AuthenticateRaw(ctx context.Context, username, password string) (string, error) {
	if password == "" {
		return "", ErrInvalidCredentials
	}
	return s.Authenticate(ctx, username, security.HashPassword(password))
}

// AuthenticateByToken resolves the account holding the session token. The
// expiry check happens here at call time; expired rows stay in storage until
// the next successful login overwrites them.
func (s *SessionService) AuthenticateByToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	user, err := s.users.GetBySessionToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	if !user.HasActiveSession(s.now().UTC()) {
		return nil, ErrInvalidSession
	}

	return user, nil
}

// RequireAdmin resolves the session and rejects non-admin holders.
func (s *SessionService) RequireAdmin(ctx context.Context, token string) (*domain.User, error) {
	user, err := s.AuthenticateByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, ErrAdminRequired
	}
	return user, nil
}
