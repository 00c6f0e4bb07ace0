package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/walk2school/rewards-backend/internal/core/domain"
	"github.com/walk2school/rewards-backend/internal/usecase"
)

// PresenceHandler exposes walking heartbeats and the derived presence views.
type PresenceHandler struct {
	presence *usecase.PresenceService
}

// NewPresenceHandler builds a presence handler.
func NewPresenceHandler(presence *usecase.PresenceService) *PresenceHandler {
	return &PresenceHandler{presence: presence}
}

// Heartbeat records that the session holder is walking right now, along with
// their position.
func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	var req HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid heartbeat payload"))
		return
	}

	token := strings.TrimSpace(req.SessionToken)
	if token == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing session token"))
		return
	}
	if req.Lat == nil || req.Long == nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing latitude or longitude"))
		return
	}

	pos := domain.Position{Lat: *req.Lat, Long: *req.Long}
	if err := h.presence.Heartbeat(c.Request.Context(), token, pos); err != nil {
		RespondWithMappedError(c, err, sessionErrorCases(), http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Heartbeat recorded"})
}

// LiveWalking reports, per account, whether a heartbeat landed inside the
// walking window.
func (h *PresenceHandler) LiveWalking(c *gin.Context) {
	statuses, err := h.presence.LiveWalking(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Server error"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": statuses})
}

// Locations returns the last known position of every user that reported one.
func (h *PresenceHandler) Locations(c *gin.Context) {
	locations, err := h.presence.Locations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Server error"))
		return
	}

	c.JSON(http.StatusOK, locations)
}
