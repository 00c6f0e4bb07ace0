package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/walk2school/rewards-backend/internal/usecase"
)

// AccountHandler exposes account registration.
type AccountHandler struct {
	accounts *usecase.AccountService
}

// NewAccountHandler builds an account handler.
func NewAccountHandler(accounts *usecase.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// CreateAccount registers a new account. The username must be an email
// address and the password arrives as a SHA-256 hex digest.
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing username or password"))
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing username or password"))
		return
	}

	if _, err := h.accounts.CreateUser(c.Request.Context(), username, req.Password); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidUsername, Status: http.StatusBadRequest, Message: "Username must be a valid email address"},
			{Err: usecase.ErrUsernameTaken, Status: http.StatusBadRequest, Message: "Username already taken"},
		}, http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Account created"})
}
