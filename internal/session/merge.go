package session

import (
	"investra/internal/domain"
)

// UserUpdate is an out-of-band push about one user: some changed top-level
// fields, optionally with one activity attached. Fields are pointers so an
// absent field is distinguishable from a zero value; only the fields the
// sender set are merged.
type UserUpdate struct {
	ID        string           `json:"id"`
	Username  *string          `json:"username,omitempty"`
	Email     *string          `json:"email,omitempty"`
	KYCStatus *string          `json:"kycStatus,omitempty"`
	Balance   *float64         `json:"balance,omitempty"`
	Activity  *domain.Activity `json:"activity,omitempty"`
}

// mergeUserUpdate folds upd into current and returns the merged user. The
// second return is false when the update does not apply: no current user,
// or an id that does not match. current is never mutated.
func mergeUserUpdate(current *domain.User, upd UserUpdate) (*domain.User, bool) {
	if current == nil || upd.ID == "" || upd.ID != current.ID.String() {
		return nil, false
	}

	merged := current.Clone()
	merged.EnsureTransactions()

	// The balance before this update is what a balance-less activity
	// estimates from. A balance carried by the update already includes
	// the activity, so estimating from it would count the amount twice.
	prevBalance := merged.Balance

	if upd.Username != nil {
		merged.Username = *upd.Username
	}
	if upd.Email != nil {
		merged.Email = *upd.Email
	}
	if upd.KYCStatus != nil {
		merged.KYCStatus = *upd.KYCStatus
	}
	if upd.Balance != nil {
		merged.Balance = *upd.Balance
	}

	if upd.Activity != nil {
		incoming := *upd.Activity
		incoming.Normalize(prevBalance)
		mergeActivity(merged, incoming)
	}

	return merged, true
}

// mergeActivity inserts incoming into the transactions list while keeping
// the list free of duplicates:
//
//   - no existing match: prepend (the list is most-recent-first)
//   - existing match is a temporary placeholder and incoming is the
//     server-confirmed entry: replace it at its current index, so the row
//     the user just watched appear does not jump
//   - existing match is already confirmed: drop incoming to avoid
//     double-counting
func mergeActivity(u *domain.User, incoming domain.Activity) {
	for i, existing := range u.Transactions {
		if !domain.SameActivity(existing, incoming) {
			continue
		}
		if existing.IsTemp && !incoming.IsTemp {
			u.Transactions[i] = incoming
		}
		return
	}
	u.Transactions = append([]domain.Activity{incoming}, u.Transactions...)
}
