package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/walk2school/rewards-backend/internal/usecase"
)

// AuthHandler exposes the login endpoints.
type AuthHandler struct {
	sessions *usecase.SessionService
}

// NewAuthHandler builds an auth handler backed by the session service.
func NewAuthHandler(sessions *usecase.SessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// Authenticate verifies a pre-hashed password and issues a session token.
func (h *AuthHandler) Authenticate(c *gin.Context) {
	h.login(c, h.sessions.Authenticate)
}

// AuthenticateRaw accepts a plaintext password and hashes it server-side.
// Kept for clients that cannot hash before sending.
func (h *AuthHandler) AuthenticateRaw(c *gin.Context) {
	h.login(c, h.sessions.AuthenticateRaw)
}

func (h *AuthHandler) login(c *gin.Context, authenticate func(ctx context.Context, username, password string) (string, error)) {
	var req AuthenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing username or password"))
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing username or password"))
		return
	}

	token, err := authenticate(c.Request.Context(), username, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "Invalid username or password"},
		}, http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, AuthenticateResponse{
		Message:      "Authenticated",
		SessionToken: token,
	})
}
