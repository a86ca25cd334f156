package domain

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Activity is one financial ledger entry belonging to a user. Committed
// activities are immutable server-side, but the client may hold a temporary
// placeholder (IsTemp) until the server confirms it.
type Activity struct {
	ID     string  `json:"id"`
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
	Status string  `json:"status,omitempty"`
	// Approved is the legacy admin flag older payloads carry instead of an
	// explicit status. Normalize infers Status from it when Status is empty.
	Approved *bool  `json:"approved,omitempty"`
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
	// Balance is the account balance immediately after this activity. When
	// the server omits it, Normalize fills it with EstimateBalance.
	Balance     *float64 `json:"balance,omitempty"`
	Description string   `json:"description,omitempty"`
	IsTemp      bool     `json:"_isTemp,omitempty"`
}

// Activity status values
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Common activity types. Type is free-form on the wire; these are the ones
// the backend itself records.
const (
	TypeDeposit    = "deposit"
	TypeWithdrawal = "withdrawal"
	TypeTrade      = "trade"
	TypeLoan       = "loan"
	TypeReferral   = "referral_bonus"
)

const tempIDPrefix = "tmp-"

// NewTempID generates a client-side placeholder id. The prefix keeps it
// distinguishable from server-assigned ids until confirmation replaces it.
func NewTempID() string {
	return fmt.Sprintf("%s%d-%06d", tempIDPrefix, time.Now().UnixMilli(), rand.Intn(1000000))
}

// IsTempID reports whether id is a client-generated placeholder id
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}

// activityTimeFormats are the timestamp layouts seen on inbound payloads.
// The backend emits RFC3339 but legacy admin tooling posts bare datetimes.
var activityTimeFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
}

// ParseActivityTime parses a timestamp in any of the accepted layouts
func ParseActivityTime(s string) (time.Time, error) {
	for _, format := range activityTimeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", s)
}

// EstimateBalance returns the best-effort balance after applying amount to
// the previous balance. Approximate: it may drift from ground truth and is
// superseded by the next full profile refresh. Never written back to the
// server.
func EstimateBalance(prevBalance, amount float64) float64 {
	return prevBalance + amount
}

// Normalize fills the defaulted fields of an inbound activity in place.
// prevBalance is the account balance before this activity, used only when
// the payload carries no balance of its own. Normalize never fails: a
// malformed date is kept verbatim so a live update is displayed rather
// than dropped.
func (a *Activity) Normalize(prevBalance float64) {
	if a.ID == "" {
		a.ID = NewTempID()
	}
	if IsTempID(a.ID) {
		a.IsTemp = true
	}

	if a.Status == "" {
		if a.Approved != nil && *a.Approved {
			a.Status = StatusCompleted
		} else {
			a.Status = StatusPending
		}
	}

	now := time.Now()
	if a.Date == "" {
		a.Date = now.Format(time.RFC3339)
	}
	if a.Time == "" {
		if t, err := ParseActivityTime(a.Date); err == nil {
			a.Time = t.Format("3:04:05 PM")
		} else {
			a.Time = now.Format("3:04:05 PM")
		}
	}

	if a.Description == "" {
		a.Description = strings.ToUpper(strings.ReplaceAll(a.Type, "_", " "))
	}

	if a.Balance == nil {
		b := EstimateBalance(prevBalance, a.Amount)
		a.Balance = &b
	}
}

// SameActivity reports whether two activities describe the same ledger
// entry. Identity is the id when both sides carry one; a composite of
// amount, date and type otherwise. The composite also matches a temporary
// placeholder against its server-confirmed counterpart, whose id differs.
func SameActivity(a, b Activity) bool {
	if a.ID != "" && b.ID != "" && a.ID == b.ID {
		return true
	}
	return a.Amount == b.Amount && a.Date == b.Date && a.Type == b.Type
}
