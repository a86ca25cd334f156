package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"investra/internal/delivery/http/dto"
	"investra/internal/middleware"
	"investra/internal/service"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	accounts *service.AccountService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
	}
}

// Register handles user registration
// POST /api/auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return BadRequestResponse(c, "Username, email and password are required")
	}
	if !strings.Contains(req.Email, "@") {
		return BadRequestResponse(c, "Invalid email address")
	}
	if len(req.Password) < 6 {
		return BadRequestResponse(c, "Password must be at least 6 characters")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.accounts.Register(ctx, req.Username, req.Email, req.Password)
	if errors.Is(err, service.ErrEmailExists) || errors.Is(err, service.ErrUsernameExists) {
		return ConflictResponse(c, err.Error())
	}
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to create user", err)
	}

	token, err := middleware.GenerateJWT(user.ID, user.Role)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to generate token", err)
	}

	return CreatedResponse(c, dto.AuthResponse{
		Token: token,
		User:  user,
	})
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}

	if req.Email == "" || req.Password == "" {
		return BadRequestResponse(c, "Email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.accounts.Authenticate(ctx, req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		return UnauthorizedResponse(c, "Invalid credentials")
	}
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to authenticate", err)
	}

	token, err := middleware.GenerateJWT(user.ID, user.Role)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to generate token", err)
	}

	// Browser clients also get the token as an HTTP-only cookie.
	cookie := &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   7 * 86400,
	}
	c.SetCookie(cookie)

	return SuccessResponse(c, dto.AuthResponse{
		Token: token,
		User:  user,
	})
}

// Logout clears the session cookie. Bearer tokens are stateless, so
// there is nothing to revoke server side.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	cookie := &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	}
	c.SetCookie(cookie)

	return SuccessMessageResponse(c, "Logged out", nil)
}
