package http

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"investra/internal/delivery/http/dto"
	"investra/internal/middleware"
	"investra/internal/service"
)

// UserHandler handles profile and activity requests for the
// authenticated user
type UserHandler struct {
	accounts *service.AccountService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(accounts *service.AccountService) *UserHandler {
	return &UserHandler{
		accounts: accounts,
	}
}

// GetMe returns the authenticated user's profile with recent activities
// GET /api/user/me
func (h *UserHandler) GetMe(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.accounts.Profile(ctx, userID)
	if errors.Is(err, service.ErrUserNotFound) {
		return NotFoundResponse(c, "User not found")
	}
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to load profile", err)
	}

	return SuccessResponse(c, user)
}

// GetActivities returns the authenticated user's recent activities
// GET /api/user/activities
func (h *UserHandler) GetActivities(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	activities, err := h.accounts.Activities(ctx, userID, 100)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to load activities", err)
	}

	return SuccessResponse(c, dto.ActivitiesResponse{Activities: activities})
}

// UpdateMe applies a partial profile update
// PATCH /api/user/me
func (h *UserHandler) UpdateMe(c echo.Context) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return UnauthorizedResponse(c, "Not authenticated")
	}

	var req dto.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.Username == nil && req.Email == nil {
		return BadRequestResponse(c, "No fields to update")
	}
	if req.Username != nil && *req.Username == "" {
		return BadRequestResponse(c, "Username cannot be empty")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.accounts.UpdateProfile(ctx, userID, service.ProfilePatch{
		Username: req.Username,
		Email:    req.Email,
	})
	if errors.Is(err, service.ErrEmailExists) || errors.Is(err, service.ErrUsernameExists) {
		return ConflictResponse(c, err.Error())
	}
	if errors.Is(err, service.ErrUserNotFound) {
		return NotFoundResponse(c, "User not found")
	}
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to update profile", err)
	}

	return SuccessResponse(c, user)
}
