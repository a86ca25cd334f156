package dto

import "investra/internal/domain"

// UpdateProfileRequest represents a partial profile update. Absent
// fields are left untouched.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// RecordActivityRequest is the admin payload for appending a ledger
// entry to a user's account
type RecordActivityRequest struct {
	Type     string  `json:"type" validate:"required"`
	Amount   float64 `json:"amount" validate:"required"`
	Approved *bool   `json:"approved,omitempty"`
	Date     string  `json:"date,omitempty"`
}

// SetKYCRequest represents a KYC status change
type SetKYCRequest struct {
	Status string `json:"status" validate:"required"`
}

// UserUpdate is the incremental update shape pushed back to clients
// after an admin mutation. Only the fields that changed are set; the
// client folds them into its cached user.
type UserUpdate struct {
	ID        string           `json:"id"`
	Username  *string          `json:"username,omitempty"`
	Email     *string          `json:"email,omitempty"`
	KYCStatus *string          `json:"kycStatus,omitempty"`
	Balance   *float64         `json:"balance,omitempty"`
	Activity  *domain.Activity `json:"activity,omitempty"`
}

// ActivitiesResponse wraps an activity list
type ActivitiesResponse struct {
	Activities []domain.Activity `json:"activities"`
}
