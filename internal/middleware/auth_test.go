package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	userID := uuid.New()
	token, err := GenerateJWT(userID, "USER")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err = AuthMiddleware(func(c echo.Context) error {
		gotID, err := GetUserID(c)
		if err != nil {
			t.Errorf("GetUserID: %v", err)
		}
		if gotID != userID {
			t.Errorf("user id = %v, want %v", gotID, userID)
		}
		if role, _ := c.Get("role").(string); role != "USER" {
			t.Errorf("role = %q", role)
		}
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		t.Fatalf("middleware rejected a valid token: %v", err)
	}
}

func TestAuthMiddlewareAcceptsCookie(t *testing.T) {
	token, err := GenerateJWT(uuid.New(), "USER")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := AuthMiddleware(okHandler)(c); err != nil {
		t.Fatalf("middleware rejected a valid cookie token: %v", err)
	}
}

func TestAuthMiddlewareRejectsMissingAndGarbage(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"malformed header", "tok-without-scheme"},
		{"garbage token", "Bearer not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := AuthMiddleware(okHandler)(c)
			httpErr, ok := err.(*echo.HTTPError)
			if !ok || httpErr.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %v", err)
			}
		})
	}
}

func TestAdminMiddleware(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.Set("role", "ADMIN")
	if err := AdminMiddleware(okHandler)(c); err != nil {
		t.Errorf("admin rejected: %v", err)
	}

	c = e.NewContext(req, httptest.NewRecorder())
	c.Set("role", "USER")
	err := AdminMiddleware(okHandler)(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %v", err)
	}
}
