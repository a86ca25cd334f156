package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"investra/internal/domain"
)

// ActivityRepositoryImpl implements the ActivityRepository interface.
// Activity ids are stored as text rather than uuid because client-minted
// placeholder ids are not UUIDs.
type ActivityRepositoryImpl struct {
	db *pgxpool.Pool
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *pgxpool.Pool) domain.ActivityRepository {
	return &ActivityRepositoryImpl{db: db}
}

// Save inserts an activity for a user
func (r *ActivityRepositoryImpl) Save(ctx context.Context, userID uuid.UUID, activity *domain.Activity) error {
	query := `
		INSERT INTO activities (
			id, user_id, type, amount, status,
			date, time, balance_after, description, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW()
		)
	`

	_, err := r.db.Exec(ctx, query,
		activity.ID,
		userID,
		activity.Type,
		activity.Amount,
		activity.Status,
		activity.Date,
		activity.Time,
		activity.Balance,
		activity.Description,
	)

	if err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}

	return nil
}

// ListByUser retrieves the most recent activities for a user, newest
// first. limit <= 0 means no limit.
func (r *ActivityRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Activity, error) {
	query := `
		SELECT id, type, amount, status, date, time, balance_after, description
		FROM activities
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	args := []interface{}{userID}

	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		var a domain.Activity
		err := rows.Scan(
			&a.ID,
			&a.Type,
			&a.Amount,
			&a.Status,
			&a.Date,
			&a.Time,
			&a.Balance,
			&a.Description,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return activities, nil
}

// GetPendingOlderThan returns pending activities created before the
// cutoff, grouped by user
func (r *ActivityRepositoryImpl) GetPendingOlderThan(ctx context.Context, cutoff time.Time) (map[uuid.UUID][]domain.Activity, error) {
	query := `
		SELECT user_id, id, type, amount, status, date, time, balance_after, description
		FROM activities
		WHERE status = $1 AND created_at < $2
	`

	rows, err := r.db.Query(ctx, query, domain.StatusPending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending activities: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]domain.Activity)
	for rows.Next() {
		var userID uuid.UUID
		var a domain.Activity
		err := rows.Scan(
			&userID,
			&a.ID,
			&a.Type,
			&a.Amount,
			&a.Status,
			&a.Date,
			&a.Time,
			&a.Balance,
			&a.Description,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending activity: %w", err)
		}
		result[userID] = append(result[userID], a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending activities: %w", err)
	}

	return result, nil
}

// UpdateStatus updates a single activity's status
func (r *ActivityRepositoryImpl) UpdateStatus(ctx context.Context, activityID string, status string) error {
	query := `
		UPDATE activities
		SET status = $1
		WHERE id = $2
	`

	_, err := r.db.Exec(ctx, query, status, activityID)
	if err != nil {
		return fmt.Errorf("failed to update activity status: %w", err)
	}

	return nil
}
