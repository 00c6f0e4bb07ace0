package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/walk2school/rewards-backend/internal/usecase"
)

// PasswordHandler exposes the email-based password reset flow.
type PasswordHandler struct {
	accounts *usecase.AccountService
}

// NewPasswordHandler builds a password handler.
func NewPasswordHandler(accounts *usecase.AccountService) *PasswordHandler {
	return &PasswordHandler{accounts: accounts}
}

// ForgotPassword emails a time-limited reset link to the account's address.
func (h *PasswordHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing username"))
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing username"))
		return
	}

	if err := h.accounts.RequestPasswordReset(c.Request.Context(), username); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusBadRequest, Message: "No account with that username"},
			{Err: usecase.ErrMailerFailure, Status: http.StatusInternalServerError, Message: "Could not send reset email"},
		}, http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Reset email sent"})
}

// ValidateResetToken checks a reset token before the client shows the form.
func (h *PasswordHandler) ValidateResetToken(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing reset token"))
		return
	}

	if err := h.accounts.ValidateResetToken(c.Request.Context(), token); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidResetToken, Status: http.StatusBadRequest, Message: "Invalid or expired reset token"},
		}, http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Token valid"})
}

// ResetPassword consumes a reset token and stores the new password.
func (h *PasswordHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing token or new password"))
		return
	}

	token := strings.TrimSpace(req.Token)
	if token == "" || req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing token or new password"))
		return
	}

	if err := h.accounts.ResetPassword(c.Request.Context(), token, req.NewPassword); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidResetToken, Status: http.StatusBadRequest, Message: "Invalid or expired reset token"},
			{Err: usecase.ErrWeakPassword, Status: http.StatusBadRequest, Message: "Password too short"},
		}, http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Password updated"})
}
