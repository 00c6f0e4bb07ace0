package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/walk2school/rewards-backend/internal/core/domain"
	"github.com/walk2school/rewards-backend/internal/usecase"
)

// UserKey is the gin context key holding the authenticated user.
const UserKey = "auth_user"

// SessionAuthenticator resolves session tokens to users.
type SessionAuthenticator interface {
	AuthenticateByToken(ctx context.Context, token string) (*domain.User, error)
	RequireAdmin(ctx context.Context, token string) (*domain.User, error)
}

type sessionTokenBody struct {
	SessionToken string `json:"sessionToken"`
}

// BodySessionToken extracts the sessionToken field from the JSON body without
// consuming it; handlers can still bind their own request structs afterwards.
func BodySessionToken(c *gin.Context) string {
	if c.Request == nil || c.Request.Body == nil {
		return ""
	}
	var body sessionTokenBody
	if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
		return ""
	}
	return body.SessionToken
}

// EnsureAdmin gates a route to holders of a valid admin session. The token
// travels in the JSON body, which is how the mobile clients have always sent
// it. The resolved user lands in the gin context under UserKey.
func EnsureAdmin(sessions SessionAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BodySessionToken(c)
		if token == "" {
			// GET endpoints carry the token as a query parameter instead.
			token = c.Query("sessionToken")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Missing session token"})
			return
		}

		user, err := sessions.RequireAdmin(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrAdminRequired):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin privileges required"})
			case errors.Is(err, usecase.ErrInvalidSession):
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid session token"})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
			}
			return
		}

		c.Set(UserKey, user)
		c.Next()
	}
}

// UserFromContext returns the user attached by EnsureAdmin, if any.
func UserFromContext(c *gin.Context) (*domain.User, bool) {
	value, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*domain.User)
	return user, ok
}
