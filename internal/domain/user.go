package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a broker account and its last-known snapshot
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never expose password hash in JSON
	Role         string     `json:"role,omitempty"`
	KYCStatus    string     `json:"kycStatus"`
	Balance      float64    `json:"balance"`
	Transactions []Activity `json:"transactions"`
	// Activities is the legacy alias for Transactions. Older backend
	// responses populate only this field; EnsureTransactions migrates it.
	Activities []Activity `json:"activities,omitempty"`
	CreatedAt  time.Time  `json:"createdAt,omitempty"`
	UpdatedAt  time.Time  `json:"updatedAt,omitempty"`
}

// UserRole constants
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// KYC status values
const (
	KYCUnverified = "unverified"
	KYCPending    = "pending"
	KYCVerified   = "verified"
	KYCRejected   = "rejected"
)

// ValidKYCStatus reports whether s is one of the known KYC states
func ValidKYCStatus(s string) bool {
	switch s {
	case KYCUnverified, KYCPending, KYCVerified, KYCRejected:
		return true
	}
	return false
}

// EnsureTransactions guarantees u.Transactions is non-nil, migrating the
// legacy Activities field when it is the only populated list.
func (u *User) EnsureTransactions() {
	if u.Transactions == nil {
		if u.Activities != nil {
			u.Transactions = make([]Activity, len(u.Activities))
			copy(u.Transactions, u.Activities)
		} else {
			u.Transactions = []Activity{}
		}
	}
}

// ActivitySummary holds totals derived from the transactions list
type ActivitySummary struct {
	TotalDeposits    float64 `json:"totalDeposits"`
	TotalWithdrawals float64 `json:"totalWithdrawals"`
}

// Summary recomputes completed deposit and withdrawal totals from the
// transactions list. The result depends only on Transactions, so the
// summary can always be rebuilt after a full profile refresh.
func (u *User) Summary() ActivitySummary {
	var s ActivitySummary
	for _, a := range u.Transactions {
		if a.Status != StatusCompleted {
			continue
		}
		switch strings.ToLower(a.Type) {
		case TypeDeposit:
			s.TotalDeposits += a.Amount
		case TypeWithdrawal:
			s.TotalWithdrawals += a.Amount
		}
	}
	return s
}

// Clone returns a deep copy of the user so merge operations never mutate
// a snapshot a subscriber may still be reading.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Transactions != nil {
		c.Transactions = make([]Activity, len(u.Transactions))
		copy(c.Transactions, u.Transactions)
	}
	if u.Activities != nil {
		c.Activities = make([]Activity, len(u.Activities))
		copy(c.Activities, u.Activities)
	}
	return &c
}
