package http

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"investra/internal/delivery/http/dto"
	"investra/internal/domain"
	"investra/internal/service"
)

// AdminHandler handles back-office mutations on user accounts
type AdminHandler struct {
	accounts *service.AccountService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(accounts *service.AccountService) *AdminHandler {
	return &AdminHandler{
		accounts: accounts,
	}
}

// RecordActivity appends a ledger entry to a user's account and returns
// the incremental update the client merges into its cached profile
// POST /api/admin/users/:id/activity
func (h *AdminHandler) RecordActivity(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid user id")
	}

	var req dto.RecordActivityRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if req.Type == "" {
		return BadRequestResponse(c, "Activity type is required")
	}
	if req.Amount == 0 {
		return BadRequestResponse(c, "Amount must be non-zero")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	activity, user, err := h.accounts.RecordActivity(ctx, userID, domain.Activity{
		Type:     req.Type,
		Amount:   req.Amount,
		Approved: req.Approved,
		Date:     req.Date,
	})
	if errors.Is(err, service.ErrUserNotFound) {
		return NotFoundResponse(c, "User not found")
	}
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to record activity", err)
	}

	update := dto.UserUpdate{
		ID:       user.ID.String(),
		Activity: activity,
	}
	if activity.Status == domain.StatusCompleted {
		balance := user.Balance
		update.Balance = &balance
	}

	return CreatedResponse(c, update)
}

// SetKYC updates a user's KYC verification status
// PUT /api/admin/users/:id/kyc
func (h *AdminHandler) SetKYC(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return BadRequestResponse(c, "Invalid user id")
	}

	var req dto.SetKYCRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request payload")
	}
	if !domain.ValidKYCStatus(req.Status) {
		return BadRequestResponse(c, "Invalid KYC status")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.accounts.SetKYCStatus(ctx, userID, req.Status); err != nil {
		return InternalServerErrorResponse(c, "Failed to update KYC status", err)
	}

	status := req.Status
	return SuccessResponse(c, dto.UserUpdate{
		ID:        userID.String(),
		KYCStatus: &status,
	})
}
