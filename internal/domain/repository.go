package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByUsername retrieves a user by username
	GetByUsername(ctx context.Context, username string) (*User, error)

	// UpdateBalance updates the user's balance
	UpdateBalance(ctx context.Context, userID uuid.UUID, balance float64) error

	// UpdateProfile updates the mutable profile fields (username, email)
	UpdateProfile(ctx context.Context, user *User) error

	// UpdateKYCStatus sets the user's KYC verification state
	UpdateKYCStatus(ctx context.Context, userID uuid.UUID, status string) error
}

// ActivityRepository defines the interface for activity ledger operations
type ActivityRepository interface {
	// Save persists a new activity row, including its balance-after
	Save(ctx context.Context, userID uuid.UUID, activity *Activity) error

	// ListByUser retrieves a user's activities, most recent first
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Activity, error)

	// GetPendingOlderThan retrieves pending activities created before cutoff,
	// together with the ids of the users that own them
	GetPendingOlderThan(ctx context.Context, cutoff time.Time) (map[uuid.UUID][]Activity, error)

	// UpdateStatus updates the status of an activity
	UpdateStatus(ctx context.Context, activityID string, status string) error
}
