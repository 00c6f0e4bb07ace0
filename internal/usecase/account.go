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
	"github.com/walk2school/rewards-backend/internal/infra/logger"
	"github.com/walk2school/rewards-backend/internal/infra/mailer"
	"github.com/walk2school/rewards-backend/internal/infra/security"
	"github.com/walk2school/rewards-backend/internal/repository"
)

const (
	defaultResetTokenTTL  = 15 * time.Minute
	defaultMinPasswordLen = 4
)

var (
	// ErrUsernameTaken indicates another account already holds the username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidUsername indicates the username is not a valid email address.
	ErrInvalidUsername = errors.New("username must be a valid email address")
	// ErrUserNotFound indicates no account matches the username.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidResetToken indicates the reset token is unknown or expired.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	// ErrWeakPassword indicates the new password is below the minimum length.
	ErrWeakPassword = errors.New("password too short")
	// ErrMailerFailure indicates the downstream mail provider rejected the message.
	ErrMailerFailure = errors.New("could not send email")
)

// AccountService handles registration and password-reset flows.
type AccountService struct {
	users       port.UserRepository
	mail        port.Mailer
	resetEmails *mailer.ResetEmailBuilder
	events      port.EventPublisher
	log         *zap.Logger

	resetTTL       time.Duration
	minPasswordLen int
	now            func() time.Time
}

// NewAccountService constructs an account service. The publisher and logger
// are optional; resetEmails is required for the forgot-password flow.
func NewAccountService(users port.UserRepository, mail port.Mailer, resetEmails *mailer.ResetEmailBuilder, events port.EventPublisher, log *zap.Logger) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{
		users:          users,
		mail:           mail,
		resetEmails:    resetEmails,
		events:         events,
		log:            log,
		resetTTL:       defaultResetTokenTTL,
		minPasswordLen: defaultMinPasswordLen,
		now:            time.Now,
	}
}

// WithResetTTL overrides the reset-token lifetime.
func (s *AccountService) WithResetTTL(ttl time.Duration) *AccountService {
	if ttl > 0 {
		s.resetTTL = ttl
	}
	return s
}

// WithMinPasswordLen overrides the minimum accepted password length.
func (s *AccountService) WithMinPasswordLen(n int) *AccountService {
	if n > 0 {
		s.minPasswordLen = n
	}
	return s
}

// WithClock overrides the time source, primarily for tests.
func (s *AccountService) WithClock(now func() time.Time) *AccountService {
	if now != nil {
		s.now = now
	}
	return s
}

// CreateUser registers a new account. The username must be a well-formed
// email address; the password arrives as a client-side digest. Uniqueness is
// enforced by the insert itself, not by a prior existence check.
func (s *AccountService) CreateUser(ctx context.Context, username, hashedPassword string) (string, error) {
	if !security.IsEmailValid(username) {
		return "", ErrInvalidUsername
	}
	if hashedPassword == "" {
		return "", ErrInvalidCredentials
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hashedPassword,
		CurrPoints:   0,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", ErrUsernameTaken
		}
		return "", fmt.Errorf("create user: %w", err)
	}

	s.publishAccountCreated(ctx, user)

	return user.ID, nil
}

// RequestPasswordReset issues a reset token and emails it to the account's
// address. The token replaces any earlier outstanding one.
func (s *AccountService) RequestPasswordReset(ctx context.Context, username string) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	token, err := security.GenerateToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.resetTTL)
	if err := s.users.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	msg, err := s.resetEmails.Build(user.Username, security.StripDomain(user.Username), token)
	if err != nil {
		return fmt.Errorf("build reset email: %w", err)
	}

	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.Error("reset email delivery failed",
			zap.String("recipient", logger.MaskEmail(user.Username)),
			zap.Error(err),
		)
		return ErrMailerFailure
	}

	s.publishResetRequested(ctx, user, now, expiresAt)

	return nil
}

// ResetPassword redeems a reset token in a single conditional update: the new
// digest lands and the token clears only for the account whose token matches
// and has not expired. Nothing is read first, so a concurrent redeem of the
// same token cannot double-apply.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrInvalidResetToken
	}
	if len(newPassword) < s.minPasswordLen {
		return ErrWeakPassword
	}

	now := s.now().UTC()
	userID, err := s.users.ConsumeResetToken(ctx, token, security.HashPassword(newPassword), now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	s.publishPasswordChanged(ctx, userID, now)

	return nil
}

// ValidateResetToken reports whether the token currently maps to a pending
// reset. Backs the reset landing page.
func (s *AccountService) ValidateResetToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidResetToken
	}

	if _, err := s.users.GetByResetToken(ctx, token, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}

	return nil
}

func (s *AccountService) publishAccountCreated(ctx context.Context, user domain.User) {
	if s.events == nil {
		return
	}
	event := domain.AccountCreatedEvent{
		EventID:   uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}
	if err := s.events.PublishAccountCreated(ctx, event); err != nil {
		s.log.Warn("publish account created event", zap.Error(err))
	}
}

func (s *AccountService) publishResetRequested(ctx context.Context, user *domain.User, requestedAt, expiresAt time.Time) {
	if s.events == nil {
		return
	}
	event := domain.PasswordResetRequestedEvent{
		EventID:     uuid.NewString(),
		UserID:      user.ID,
		Username:    user.Username,
		RequestedAt: requestedAt,
		ExpiresAt:   expiresAt,
	}
	if err := s.events.PublishPasswordResetRequested(ctx, event); err != nil {
		s.log.Warn("publish reset requested event", zap.Error(err))
	}
}

func (s *AccountService) publishPasswordChanged(ctx context.Context, userID string, at time.Time) {
	if s.events == nil {
		return
	}
	event := domain.PasswordChangedEvent{
		EventID:   uuid.NewString(),
		UserID:    userID,
		ChangedAt: at,
	}
	if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
		s.log.Warn("publish password changed event", zap.Error(err))
	}
}
