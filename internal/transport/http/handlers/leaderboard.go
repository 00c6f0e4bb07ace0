package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/walk2school/rewards-backend/internal/usecase"
)

// LeaderboardHandler serves the public points ranking.
type LeaderboardHandler struct {
	leaderboard *usecase.LeaderboardService
}

// NewLeaderboardHandler builds a leaderboard handler.
func NewLeaderboardHandler(leaderboard *usecase.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

// Leaderboard returns all accounts ordered by points descending, usernames
// stripped of their email domain.
func (h *LeaderboardHandler) Leaderboard(c *gin.Context) {
	entries, err := h.leaderboard.Leaderboard(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Server error"))
		return
	}

	c.JSON(http.StatusOK, entries)
}
