package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/walk2school/rewards-backend/internal/core/domain"
	"github.com/walk2school/rewards-backend/internal/core/port"
)

const defaultWalkingWindow = 2 * time.Minute

// PresenceService tracks who is currently walking based on heartbeats.
type PresenceService struct {
	sessions *SessionService
	users    port.UserRepository

	walkingWindow time.Duration
	now           func() time.Time
}

// NewPresenceService constructs a presence service with the default
// two-minute walking window.
func NewPresenceService(sessions *SessionService, users port.UserRepository) *PresenceService {
	return &PresenceService{
		sessions:      sessions,
		users:         users,
		walkingWindow: defaultWalkingWindow,
		now:           time.Now,
	}
}

// WithWalkingWindow overrides how long after a heartbeat a user counts as walking.
func (s *PresenceService) WithWalkingWindow(window time.Duration) *PresenceService {
	if window > 0 {
		s.walkingWindow = window
	}
	return s
}

// WithClock overrides the time source, primarily for tests.
func (s *PresenceService) WithClock(now func() time.Time) *PresenceService {
	if now != nil {
		s.now = now
	}
	return s
}

// Heartbeat stamps the session holder's last-seen time and position.
func (s *PresenceService) Heartbeat(ctx context.Context, token string, pos domain.Position) error {
	user, err := s.sessions.AuthenticateByToken(ctx, token)
	if err != nil {
		return err
	}

	if err := s.users.SetHeartbeat(ctx, user.ID, s.now().UTC(), pos); err != nil {
		return fmt.Errorf("store heartbeat: %w", err)
	}

	return nil
}

// WalkingStatus is one user's derived presence row.
type WalkingStatus struct {
	Username  string `json:"username"`
	IsWalking bool   `json:"isWalking"`
}

// LiveWalking reports, for every account, whether a heartbeat landed inside
// the walking window. Presence is derived at read time; nothing is stored.
func (s *PresenceService) LiveWalking(ctx context.Context) ([]WalkingStatus, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	cutoff := s.now().UTC().Add(-s.walkingWindow)
	statuses := make([]WalkingStatus, 0, len(users))
	for _, user := range users {
		statuses = append(statuses, WalkingStatus{
			Username:  user.Username,
			IsWalking: user.LastHeartbeat != nil && user.LastHeartbeat.After(cutoff),
		})
	}

	return statuses, nil
}

// UserLocation pairs a username with its last reported position.
type UserLocation struct {
	Username string          `json:"username"`
	Location domain.Position `json:"location"`
}

// Locations returns the last known position of every user that has reported
// one. Users without a position are omitted.
func (s *PresenceService) Locations(ctx context.Context) ([]UserLocation, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	locations := make([]UserLocation, 0, len(users))
	for _, user := range users {
		if user.LastPos == nil {
			continue
		}
		locations = append(locations, UserLocation{
			Username: user.Username,
			Location: *user.LastPos,
		})
	}

	return locations, nil
}
