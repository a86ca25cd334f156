package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestEnsureTransactionsMigratesLegacyField(t *testing.T) {
	u := &User{
		Activities: []Activity{{ID: "a1", Type: "deposit", Amount: 10}},
	}
	u.EnsureTransactions()

	if len(u.Transactions) != 1 || u.Transactions[0].ID != "a1" {
		t.Fatalf("legacy activities not migrated: %+v", u.Transactions)
	}

	// The migration is a copy, not an alias.
	u.Transactions[0].Amount = 99
	if u.Activities[0].Amount != 10 {
		t.Error("migration aliased the legacy slice")
	}
}

func TestEnsureTransactionsEmpty(t *testing.T) {
	u := &User{}
	u.EnsureTransactions()
	if u.Transactions == nil || len(u.Transactions) != 0 {
		t.Errorf("expected empty non-nil transactions, got %v", u.Transactions)
	}
}

func TestSummaryCountsOnlyCompleted(t *testing.T) {
	u := &User{
		Transactions: []Activity{
			{Type: "deposit", Amount: 100, Status: StatusCompleted},
			{Type: "Deposit", Amount: 50, Status: StatusCompleted},
			{Type: "deposit", Amount: 40, Status: StatusPending},
			{Type: "withdrawal", Amount: 30, Status: StatusCompleted},
			{Type: "trade", Amount: 25, Status: StatusCompleted},
		},
	}

	s := u.Summary()
	if s.TotalDeposits != 150 {
		t.Errorf("TotalDeposits = %v, want 150", s.TotalDeposits)
	}
	if s.TotalWithdrawals != 30 {
		t.Errorf("TotalWithdrawals = %v, want 30", s.TotalWithdrawals)
	}
}

func TestCloneIsDeep(t *testing.T) {
	u := &User{
		ID:           uuid.New(),
		Username:     "ana",
		Balance:      100,
		Transactions: []Activity{{ID: "a1", Amount: 10}},
	}

	c := u.Clone()
	c.Username = "bob"
	c.Transactions[0].Amount = 99

	if u.Username != "ana" || u.Transactions[0].Amount != 10 {
		t.Error("Clone shares state with the original")
	}

	var nilUser *User
	if nilUser.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
