package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/walk2school/rewards-backend/internal/core/domain"
)

func sessionFixture(repo *fakeUserRepo, userID, token string, now time.Time) {
	user := repo.users[userID]
	expiry := now.Add(time.Hour)
	user.SessionToken = &token
	user.SessionExpiresAt = &expiry
}

func TestGetDataMergesPointsAndInventory(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	user := userFixture("u1", "kid@example.com", "digest")
	user.CurrPoints = 42
	user.Profile = map[string]any{"steps": float64(1200), "theme": "dark"}
	repo := newFakeUserRepo(user)
	repo.inventories["u1"] = []domain.InventoryItem{{Name: "cap", Price: 10, Quantity: 2}}
	sessionFixture(repo, "u1", "tok", now)

	sessions := NewSessionService(repo).WithClock(fixedClock(now))
	svc := NewProfileService(sessions, repo)

	data, err := svc.GetData(context.Background(), "tok")
	if err != nil {
		t.Fatalf("get data: %v", err)
	}

	if data["theme"] != "dark" {
		t.Fatalf("profile key lost: %v", data["theme"])
	}
	if data["currPoints"] != int64(42) {
		t.Fatalf("expected currPoints 42, got %v", data["currPoints"])
	}
	items, ok := data["inventory"].([]domain.InventoryItem)
	if !ok || len(items) != 1 || items[0].Name != "cap" {
		t.Fatalf("unexpected inventory: %v", data["inventory"])
	}
}

func TestGetDataRequiresValidSession(t *testing.T) {
	repo := newFakeUserRepo(userFixture("u1", "kid@example.com", "digest"))
	svc := NewProfileService(NewSessionService(repo), repo)

	if _, err := svc.GetData(context.Background(), "bogus"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestSetDataStripsPrivileges(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	repo := newFakeUserRepo(userFixture("u1", "kid@example.com", "digest"))
	sessionFixture(repo, "u1", "tok", now)
	sessions := NewSessionService(repo).WithClock(fixedClock(now))
	svc := NewProfileService(sessions, repo)

	err := svc.SetData(context.Background(), "tok", map[string]any{
		"privileges": "admin",
		"theme":      "light",
		"currPoints": float64(99),
	})
	if err != nil {
		t.Fatalf("set data: %v", err)
	}

	stored := repo.users["u1"]
	if stored.Privileges == "admin" {
		t.Fatal("client escalated privileges through set-data")
	}
	if _, ok := stored.Profile["privileges"]; ok {
		t.Fatal("privileges key persisted in profile blob")
	}
	if stored.Profile["theme"] != "light" {
		t.Fatalf("profile key lost: %v", stored.Profile["theme"])
	}
	if stored.CurrPoints != 99 {
		t.Fatalf("expected currPoints 99, got %d", stored.CurrPoints)
	}
}

func TestSetDataReplacesInventory(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	repo := newFakeUserRepo(userFixture("u1", "kid@example.com", "digest"))
	repo.inventories["u1"] = []domain.InventoryItem{{Name: "old", Quantity: 1}}
	sessionFixture(repo, "u1", "tok", now)
	sessions := NewSessionService(repo).WithClock(fixedClock(now))
	svc := NewProfileService(sessions, repo)

	err := svc.SetData(context.Background(), "tok", map[string]any{
		"inventory": []any{
			map[string]any{"name": "cap", "price": float64(10), "quantity": float64(1)},
		},
	})
	if err != nil {
		t.Fatalf("set data: %v", err)
	}

	items := repo.inventories["u1"]
	if len(items) != 1 || items[0].Name != "cap" || items[0].Price != 10 {
		t.Fatalf("unexpected inventory after replace: %+v", items)
	}
}

func TestGetUserInfo(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	user := userFixture("u1", "teacher@example.com", "digest")
	user.Privileges = "admin"
	repo := newFakeUserRepo(user)
	sessionFixture(repo, "u1", "tok", now)
	sessions := NewSessionService(repo).WithClock(fixedClock(now))
	svc := NewProfileService(sessions, repo)

	info, err := svc.GetUserInfo(context.Background(), "tok")
	if err != nil {
		t.Fatalf("get user info: %v", err)
	}
	if info.Username != "teacher@example.com" || info.Privileges != "admin" {
		t.Fatalf("unexpected info %+v", info)
	}
}
