package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/walk2school/rewards-backend/internal/core/domain"
	"github.com/walk2school/rewards-backend/internal/usecase"
)

type fakeSessionAuthenticator struct {
	user *domain.User
	err  error

	lastToken string
}

func (f *fakeSessionAuthenticator) AuthenticateByToken(_ context.Context, token string) (*domain.User, error) {
	f.lastToken = token
	return f.user, f.err
}

func (f *fakeSessionAuthenticator) RequireAdmin(_ context.Context, token string) (*domain.User, error) {
	f.lastToken = token
	return f.user, f.err
}

func adminRouter(sessions SessionAuthenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	handler := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.POST("/admin", EnsureAdmin(sessions), handler)
	r.GET("/admin", EnsureAdmin(sessions), handler)
	return r
}

func TestEnsureAdminBodyToken(t *testing.T) {
	admin := &domain.User{ID: "u1", Username: "boss@example.com", Privileges: domain.PrivilegeAdmin}
	sessions := &fakeSessionAuthenticator{user: admin}
	r := adminRouter(sessions)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin", strings.NewReader(`{"sessionToken":"tok-1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if sessions.lastToken != "tok-1" {
		t.Fatalf("expected token tok-1, got %q", sessions.lastToken)
	}
}

func TestEnsureAdminBodylessGET(t *testing.T) {
	sessions := &fakeSessionAuthenticator{err: usecase.ErrInvalidSession}
	r := adminRouter(sessions)

	// No body at all. The middleware must reject cleanly, not panic.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestEnsureAdminQueryTokenFallback(t *testing.T) {
	admin := &domain.User{ID: "u1", Username: "boss@example.com", Privileges: domain.PrivilegeAdmin}
	sessions := &fakeSessionAuthenticator{user: admin}
	r := adminRouter(sessions)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin?sessionToken=tok-2", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if sessions.lastToken != "tok-2" {
		t.Fatalf("expected token tok-2, got %q", sessions.lastToken)
	}
}

func TestEnsureAdminRejectsNonAdmin(t *testing.T) {
	sessions := &fakeSessionAuthenticator{err: usecase.ErrAdminRequired}
	r := adminRouter(sessions)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin", strings.NewReader(`{"sessionToken":"tok-3"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", w.Code)
	}
}
