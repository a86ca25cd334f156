package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"investra/internal/domain"
	"investra/internal/kafka"
	"investra/internal/repository"
)

// Sentinel errors mapped to HTTP statuses at the delivery layer
var (
	ErrEmailExists        = errors.New("email already registered")
	ErrUsernameExists     = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// AccountService owns registration, authentication, profiles and the
// activity ledger
type AccountService struct {
	userRepo     domain.UserRepository
	activityRepo domain.ActivityRepository
	producer     *kafka.Producer
	log          *logrus.Logger
}

// NewAccountService creates an AccountService. producer may be nil when
// Kafka is disabled.
func NewAccountService(userRepo domain.UserRepository, activityRepo domain.ActivityRepository, producer *kafka.Producer, log *logrus.Logger) *AccountService {
	return &AccountService{
		userRepo:     userRepo,
		activityRepo: activityRepo,
		producer:     producer,
		log:          log,
	}
}

// Register creates a new account with a hashed password and zero balance
func (s *AccountService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		KYCStatus:    domain.KYCUnverified,
		Balance:      0,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Infof("Registered new user: %s (%s)", user.Username, user.ID)
	return user, nil
}

// Authenticate verifies credentials and returns the user
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Profile returns a user with their recent activities attached
func (s *AccountService) Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	activities, err := s.activityRepo.ListByUser(ctx, userID, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	user.Transactions = activities

	return user, nil
}

// Activities returns a user's recent activities, newest first
func (s *AccountService) Activities(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Activity, error) {
	activities, err := s.activityRepo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

// ProfilePatch carries the optional profile fields an update may change
type ProfilePatch struct {
	Username *string
	Email    *string
}

// UpdateProfile applies a partial profile update and returns the fresh
// profile
func (s *AccountService) UpdateProfile(ctx context.Context, userID uuid.UUID, patch ProfilePatch) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if patch.Username != nil {
		username := strings.TrimSpace(*patch.Username)
		if username != user.Username {
			if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
				return nil, ErrUsernameExists
			} else if !errors.Is(err, repository.ErrUserNotFound) {
				return nil, fmt.Errorf("failed to check username: %w", err)
			}
			user.Username = username
		}
	}
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if email != user.Email {
			if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
				return nil, ErrEmailExists
			} else if !errors.Is(err, repository.ErrUserNotFound) {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			user.Email = email
		}
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	return s.Profile(ctx, userID)
}

// SetKYCStatus updates a user's verification status
func (s *AccountService) SetKYCStatus(ctx context.Context, userID uuid.UUID, status string) error {
	if !domain.ValidKYCStatus(status) {
		return fmt.Errorf("invalid kyc status: %q", status)
	}
	if err := s.userRepo.UpdateKYCStatus(ctx, userID, status); err != nil {
		return err
	}
	s.log.Infof("KYC status for user %s set to %s", userID, status)
	return nil
}

// RecordActivity records a new ledger entry for a user. Completed
// entries move the balance immediately; pending entries only carry a
// projected balance and settle later. Large amounts are published to
// the notification topic.
func (s *AccountService) RecordActivity(ctx context.Context, userID uuid.UUID, activity domain.Activity) (*domain.Activity, *domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, nil, ErrUserNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Server-recorded entries always get a real id, never a client
	// placeholder.
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	activity.Normalize(user.Balance)

	if activity.Status == domain.StatusCompleted {
		newBalance := user.Balance + activity.Amount
		if err := s.userRepo.UpdateBalance(ctx, userID, newBalance); err != nil {
			return nil, nil, err
		}
		user.Balance = newBalance
		activity.Balance = &newBalance
	}

	if err := s.activityRepo.Save(ctx, userID, &activity); err != nil {
		return nil, nil, err
	}

	balanceAfter := user.Balance
	if activity.Balance != nil {
		balanceAfter = *activity.Balance
	}
	if err := s.notifyLarge(ctx, userID, activity, balanceAfter); err != nil {
		// Notification failures never block the ledger write.
		s.log.Warnf("Failed to publish activity notification: %v", err)
	}

	s.log.Infof("Recorded %s activity for user %s: amount=%.2f status=%s", activity.Type, userID, activity.Amount, activity.Status)
	return &activity, user, nil
}

func (s *AccountService) notifyLarge(ctx context.Context, userID uuid.UUID, activity domain.Activity, balanceAfter float64) error {
	return s.producer.NotifyLargeActivity(ctx, kafka.ActivityMessage{
		UserID:       userID.String(),
		ActivityID:   activity.ID,
		Type:         activity.Type,
		Amount:       activity.Amount,
		BalanceAfter: balanceAfter,
	})
}

// ExpireStalePending fails pending withdrawals older than maxAge and
// returns how many entries were touched. Deposits stay pending until an
// operator settles them.
func (s *AccountService) ExpireStalePending(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	stale, err := s.activityRepo.GetPendingOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch stale activities: %w", err)
	}

	expired := 0
	for userID, activities := range stale {
		for _, a := range activities {
			if a.Type != domain.TypeWithdrawal {
				continue
			}
			if err := s.activityRepo.UpdateStatus(ctx, a.ID, domain.StatusFailed); err != nil {
				s.log.Errorf("Failed to expire activity %s for user %s: %v", a.ID, userID, err)
				continue
			}
			expired++
		}
	}

	if expired > 0 {
		s.log.Infof("Expired %d stale pending withdrawals", expired)
	}
	return expired, nil
}
