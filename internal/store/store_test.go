package store

import (
	"testing"

	"github.com/google/uuid"

	"investra/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if _, ok := s.Token(); ok {
		t.Error("fresh store must have no token")
	}

	if err := s.SetToken("tok-abc"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}

	token, ok := s.Token()
	if !ok || token != "tok-abc" {
		t.Errorf("Token() = %q, %v", token, ok)
	}
}

func TestUserRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if _, ok := s.User(); ok {
		t.Error("fresh store must have no user")
	}

	u := &domain.User{
		ID:       uuid.New(),
		Username: "ana",
		Balance:  1000,
		Transactions: []domain.Activity{
			{ID: "srv-1", Type: "deposit", Amount: 1000, Status: domain.StatusCompleted},
		},
	}
	if err := s.SetUser(u); err != nil {
		t.Fatalf("SetUser: %v", err)
	}

	got, ok := s.User()
	if !ok {
		t.Fatal("User() returned no user")
	}
	if got.ID != u.ID || got.Username != "ana" || got.Balance != 1000 {
		t.Errorf("user round trip mismatch: %+v", got)
	}
	if len(got.Transactions) != 1 || got.Transactions[0].ID != "srv-1" {
		t.Errorf("transactions round trip mismatch: %+v", got.Transactions)
	}
}

func TestClear(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := s.SetToken("tok"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if err := s.SetUser(&domain.User{ID: uuid.New(), Username: "ana"}); err != nil {
		t.Fatalf("SetUser: %v", err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := s.Token(); ok {
		t.Error("token survived Clear")
	}
	if _, ok := s.User(); ok {
		t.Error("user survived Clear")
	}

	// Clearing an already-empty store is fine.
	if err := s.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s1, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s1.SetToken("tok-persist"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}

	s2, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore (reopen): %v", err)
	}
	token, ok := s2.Token()
	if !ok || token != "tok-persist" {
		t.Errorf("token lost across reopen: %q, %v", token, ok)
	}
}
