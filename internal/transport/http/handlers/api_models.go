package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/walk2school/rewards-backend/internal/transport/http/middleware"
)

// ErrorResponse is the generic error payload with a trace ID for debugging.
type ErrorResponse struct {
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with the trace ID from context.
func NewErrorResponse(c *gin.Context, message string) ErrorResponse {
	return ErrorResponse{
		Message: message,
		TraceID: middleware.GetTraceID(c),
	}
}

// MessageResponse is a bare confirmation payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// AuthenticateRequest carries login credentials. Password is the client-side
// SHA-256 hex digest on /authenticate and the plaintext on /authenticate-raw.
type AuthenticateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthenticateResponse returns the freshly issued session token.
type AuthenticateResponse struct {
	Message      string `json:"message"`
	SessionToken string `json:"sessionToken"`
}

// CreateAccountRequest registers a new account. Password arrives pre-hashed.
type CreateAccountRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ForgotPasswordRequest kicks off the email reset flow.
type ForgotPasswordRequest struct {
	Username string `json:"username"`
}

// ResetPasswordRequest completes a reset with the emailed token.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"password"`
}

// SessionRequest is the body shape for endpoints that only need a session.
type SessionRequest struct {
	SessionToken string `json:"sessionToken"`
}

// PurchaseRequest buys one unit of a shop listing.
type PurchaseRequest struct {
	SessionToken string `json:"sessionToken"`
	ItemName     string `json:"name"`
}

// FulfillOrderRequest marks a pending order as handed out.
type FulfillOrderRequest struct {
	SessionToken string `json:"sessionToken"`
	Username     string `json:"username"`
	ItemName     string `json:"name"`
}

// HeartbeatRequest reports that the session holder is currently walking.
type HeartbeatRequest struct {
	SessionToken string   `json:"sessionToken"`
	Lat          *float64 `json:"latitude"`
	Long         *float64 `json:"longitude"`
}
