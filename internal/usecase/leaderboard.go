package usecase

import (
	"context"
	"fmt"

	"github.com/walk2school/rewards-backend/internal/core/port"
	"github.com/walk2school/rewards-backend/internal/infra/security"
)

// LeaderboardService ranks accounts by points.
type LeaderboardService struct {
	users port.UserRepository
}

// NewLeaderboardService constructs a leaderboard service.
func NewLeaderboardService(users port.UserRepository) *LeaderboardService {
	return &LeaderboardService{users: users}
}

// LeaderboardEntry is one public row on the points ladder. The username is
// shown without its email domain.
type LeaderboardEntry struct {
	Username   string `json:"username"`
	CurrPoints int64  `json:"points"`
}

// Leaderboard returns every account ordered by points descending. Accounts
// with no recorded points rank with zero.
func (s *LeaderboardService) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for _, user := range users {
		entries = append(entries, LeaderboardEntry{
			Username:   security.StripDomain(user.Username),
			CurrPoints: user.CurrPoints,
		})
	}

	return entries, nil
}
