package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/walk2school/rewards-backend/internal/core/domain"
	"github.com/walk2school/rewards-backend/internal/core/port"
)

// ProfileService reads and writes the free-form account data blob.
type ProfileService struct {
	sessions *SessionService
	users    port.UserRepository
}

// NewProfileService constructs a profile service.
func NewProfileService(sessions *SessionService, users port.UserRepository) *ProfileService {
	return &ProfileService{sessions: sessions, users: users}
}

// UserInfo is the compact identity view returned to authenticated clients.
type UserInfo struct {
	Username   string `json:"username"`
	Privileges string `json:"privileges"`
}

// GetData returns the account's data blob with the points balance and
// inventory folded back in, matching the shape clients persist via SetData.
func (s *ProfileService) GetData(ctx context.Context, token string) (map[string]any, error) {
	user, err := s.sessions.AuthenticateByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	items, err := s.users.ListInventory(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}

	data := make(map[string]any, len(user.Profile)+2)
	for k, v := range user.Profile {
		data[k] = v
	}
	data["currPoints"] = user.CurrPoints
	if items == nil {
		items = []domain.InventoryItem{}
	}
	data["inventory"] = items

	return data, nil
}

// SetData replaces the account's data blob. The privileges key is dropped so
// clients cannot self-promote; currPoints and inventory are split out into
// their structured columns, the remainder is stored as-is.
func (s *ProfileService) SetData(ctx context.Context, token string, data map[string]any) error {
	user, err := s.sessions.AuthenticateByToken(ctx, token)
	if err != nil {
		return err
	}

	profile := make(map[string]any, len(data))
	for k, v := range data {
		profile[k] = v
	}
	delete(profile, "privileges")

	points := user.CurrPoints
	if raw, ok := profile["currPoints"]; ok {
		points = coercePoints(raw, points)
		delete(profile, "currPoints")
	}

	var items []domain.InventoryItem
	itemsPresent := false
	if raw, ok := profile["inventory"]; ok {
		itemsPresent = true
		items, err = decodeInventory(raw)
		if err != nil {
			return fmt.Errorf("decode inventory: %w", err)
		}
		delete(profile, "inventory")
	}

	if err := s.users.SetProfile(ctx, user.ID, profile); err != nil {
		return fmt.Errorf("store profile: %w", err)
	}
	if err := s.users.SetPoints(ctx, user.ID, points); err != nil {
		return fmt.Errorf("store points: %w", err)
	}
	if itemsPresent {
		if err := s.users.ReplaceInventory(ctx, user.ID, items); err != nil {
			return fmt.Errorf("store inventory: %w", err)
		}
	}

	return nil
}

// GetUserInfo returns the session holder's username and privilege level.
func (s *ProfileService) GetUserInfo(ctx context.Context, token string) (*UserInfo, error) {
	user, err := s.sessions.AuthenticateByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &UserInfo{Username: user.Username, Privileges: user.Privileges}, nil
}

func coercePoints(raw any, fallback int64) int64 {
	switch v := raw.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
	}
	return fallback
}

func decodeInventory(raw any) ([]domain.InventoryItem, error) {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var items []domain.InventoryItem
	if err := json.Unmarshal(encoded, &items); err != nil {
		return nil, err
	}
	return items, nil
}
