package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/walk2school/rewards-backend/internal/usecase"
)

// ProfileHandler exposes the per-account data blob endpoints.
type ProfileHandler struct {
	profiles *usecase.ProfileService
}

// NewProfileHandler builds a profile handler.
func NewProfileHandler(profiles *usecase.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// GetData returns the session holder's data blob, with the points balance
// and inventory folded in.
func (h *ProfileHandler) GetData(c *gin.Context) {
	token, ok := bindSessionToken(c)
	if !ok {
		return
	}

	data, err := h.profiles.GetData(c.Request.Context(), token)
	if err != nil {
		RespondWithMappedError(c, err, sessionErrorCases(), http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, data)
}

type setDataRequest struct {
	SessionToken string          `json:"sessionToken"`
	Data         json.RawMessage `json:"data"`
}

// SetData replaces the session holder's data blob. The data field may be a
// JSON object or, as older clients send it, a string containing JSON.
func (h *ProfileHandler) SetData(c *gin.Context) {
	var req setDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid request body"))
		return
	}

	token := strings.TrimSpace(req.SessionToken)
	if token == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing session token"))
		return
	}

	data, err := decodeDataBlob(req.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid data payload"))
		return
	}

	if err := h.profiles.SetData(c.Request.Context(), token, data); err != nil {
		RespondWithMappedError(c, err, sessionErrorCases(), http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Data saved"})
}

// GetUserInfo returns the session holder's username and privilege level.
func (h *ProfileHandler) GetUserInfo(c *gin.Context) {
	token, ok := bindSessionToken(c)
	if !ok {
		return
	}

	info, err := h.profiles.GetUserInfo(c.Request.Context(), token)
	if err != nil {
		RespondWithMappedError(c, err, sessionErrorCases(), http.StatusInternalServerError, "Server error")
		return
	}

	c.JSON(http.StatusOK, info)
}

// bindSessionToken binds a {sessionToken} body and rejects empty tokens.
// It writes the error response itself; callers bail on ok == false.
func bindSessionToken(c *gin.Context) (string, bool) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing session token"))
		return "", false
	}

	token := strings.TrimSpace(req.SessionToken)
	if token == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Missing session token"))
		return "", false
	}
	return token, true
}

func sessionErrorCases() []ErrorCase {
	return []ErrorCase{
		{Err: usecase.ErrInvalidSession, Status: http.StatusBadRequest, Message: "Invalid session token"},
	}
}

func decodeDataBlob(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err == nil {
		return data, nil
	}

	// Stringified JSON from older clients.
	var nested string
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(nested), &data); err != nil {
		return nil, err
	}
	return data, nil
}
