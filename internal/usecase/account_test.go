package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/walk2school/rewards-backend/internal/infra/mailer"
	"github.com/walk2school/rewards-backend/internal/infra/security"
)

func newAccountService(repo *fakeUserRepo, mail *fakeMailer, events *fakePublisher) *AccountService {
	builder := mailer.NewResetEmailBuilder("support@walk2school.app", "Walk 2 School", "https://walk2school.app/reset-password", 15)
	return NewAccountService(repo, mail, builder, events, nil)
}

func TestCreateUserStoresDigestAndZeroPoints(t *testing.T) {
	repo := newFakeUserRepo()
	events := &fakePublisher{}
	svc := newAccountService(repo, &fakeMailer{}, events)

	digest := security.HashPassword("hunter2")
	id, err := svc.CreateUser(context.Background(), "kid@example.com", digest)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	stored := repo.users[id]
	if stored == nil {
		t.Fatal("user not persisted")
	}
	if stored.PasswordHash != digest {
		t.Fatalf("expected stored digest %q, got %q", digest, stored.PasswordHash)
	}
	if stored.CurrPoints != 0 {
		t.Fatalf("expected zero starting points, got %d", stored.CurrPoints)
	}
	if stored.Privileges != "" {
		t.Fatalf("expected no privileges, got %q", stored.Privileges)
	}
	if events.accountCreated != 1 {
		t.Fatalf("expected 1 account-created event, got %d", events.accountCreated)
	}
}

func TestCreateUserRejectsBadUsernames(t *testing.T) {
	svc := newAccountService(newFakeUserRepo(), &fakeMailer{}, nil)

	bad := []string{
		"",
		"not-an-email",
		"@example.com",
		strings.Repeat("a", 65) + "@example.com",
	}
	for _, username := range bad {
		if _, err := svc.CreateUser(context.Background(), username, "digest"); !errors.Is(err, ErrInvalidUsername) {
			t.Errorf("%q: expected ErrInvalidUsername, got %v", username, err)
		}
	}
}

func TestCreateUserDuplicateIsRejected(t *testing.T) {
	repo := newFakeUserRepo(userFixture("u1", "kid@example.com", "digest"))
	svc := newAccountService(repo, &fakeMailer{}, nil)

	if _, err := svc.CreateUser(context.Background(), "kid@example.com", "other"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRequestPasswordResetSendsTokenEmail(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	repo := newFakeUserRepo(userFixture("u1", "kid@example.com", "digest"))
	mail := &fakeMailer{}
	events := &fakePublisher{}
	svc := newAccountService(repo, mail, events).WithClock(fixedClock(now))

	if err := svc.RequestPasswordReset(context.Background(), "kid@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}

	stored := repo.users["u1"]
	if stored.ResetToken == nil || *stored.ResetToken == "" {
		t.Fatal("reset token not persisted")
	}
	want := now.Add(15 * time.Minute)
	if stored.ResetExpiresAt == nil || !stored.ResetExpiresAt.Equal(want) {
		t.Fatalf("expected reset expiry %v, got %v", want, stored.ResetExpiresAt)
	}

	if len(mail.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(mail.sent))
	}
	if mail.sent[0].To != "kid@example.com" {
		t.Fatalf("unexpected recipient %q", mail.sent[0].To)
	}
	if !strings.Contains(mail.sent[0].Text, *stored.ResetToken) {
		t.Fatal("email body missing reset token")
	}
	if events.resetRequested != 1 {
		t.Fatalf("expected 1 reset-requested event, got %d", events.resetRequested)
	}
}

func TestRequestPasswordResetUnknownUser(t *testing.T) {
	svc := newAccountService(newFakeUserRepo(), &fakeMailer{}, nil)

	if err := svc.RequestPasswordReset(context.Background(), "stranger@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRequestPasswordResetMailerFailure(t *testing.T) {
	repo := newFakeUserRepo(userFixture("u1", "kid@example.com", "digest"))
	svc := newAccountService(repo, &fakeMailer{err: errStorage}, nil)

	if err := svc.RequestPasswordReset(context.Background(), "kid@example.com"); !errors.Is(err, ErrMailerFailure) {
		t.Fatalf("expected ErrMailerFailure, got %v", err)
	}
}

func TestResetPasswordConsumesToken(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	user := userFixture("u1", "kid@example.com", "old-digest")
	token := "reset-token"
	expiry := now.Add(10 * time.Minute)
	user.ResetToken = &token
	user.ResetExpiresAt = &expiry
	repo := newFakeUserRepo(user)
	events := &fakePublisher{}
	svc := newAccountService(repo, &fakeMailer{}, events).WithClock(fixedClock(now))

	if err := svc.ResetPassword(context.Background(), token, "newpass"); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	stored := repo.users["u1"]
	if stored.PasswordHash != security.HashPassword("newpass") {
		t.Fatal("password digest not replaced")
	}
	if stored.ResetToken != nil || stored.ResetExpiresAt != nil {
		t.Fatal("reset fields not cleared")
	}
	if events.passwordChanged != 1 {
		t.Fatalf("expected 1 password-changed event, got %d", events.passwordChanged)
	}

	// Single use: a second redeem of the same token fails.
	if err := svc.ResetPassword(context.Background(), token, "another"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken on reuse, got %v", err)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	user := userFixture("u1", "kid@example.com", "old-digest")
	token := "reset-token"
	expiry := now.Add(-time.Minute)
	user.ResetToken = &token
	user.ResetExpiresAt = &expiry
	svc := newAccountService(newFakeUserRepo(user), &fakeMailer{}, nil).WithClock(fixedClock(now))

	if err := svc.ResetPassword(context.Background(), token, "newpass"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken, got %v", err)
	}
}

func TestResetPasswordRejectsShortPasswords(t *testing.T) {
	svc := newAccountService(newFakeUserRepo(), &fakeMailer{}, nil)

	if err := svc.ResetPassword(context.Background(), "tok", "abc"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestValidateResetToken(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	user := userFixture("u1", "kid@example.com", "digest")
	token := "reset-token"
	expiry := now.Add(5 * time.Minute)
	user.ResetToken = &token
	user.ResetExpiresAt = &expiry
	svc := newAccountService(newFakeUserRepo(user), &fakeMailer{}, nil).WithClock(fixedClock(now))

	if err := svc.ValidateResetToken(context.Background(), token); err != nil {
		t.Fatalf("expected token to validate, got %v", err)
	}
	if err := svc.ValidateResetToken(context.Background(), "bogus"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken, got %v", err)
	}
}
