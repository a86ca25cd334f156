package domain

import (
	"strings"
	"testing"
	"time"
)

func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }

func TestNormalizeFillsDefaults(t *testing.T) {
	a := Activity{Type: "referral_bonus", Amount: 50}
	a.Normalize(1000)

	if a.ID == "" {
		t.Error("expected a generated id")
	}
	if !a.IsTemp {
		t.Error("generated id should mark the activity as temporary")
	}
	if a.Status != StatusPending {
		t.Errorf("expected status %q, got %q", StatusPending, a.Status)
	}
	if a.Date == "" {
		t.Error("expected a defaulted date")
	}
	if _, err := time.Parse(time.RFC3339, a.Date); err != nil {
		t.Errorf("defaulted date is not RFC3339: %v", err)
	}
	if a.Time == "" {
		t.Error("expected a defaulted time")
	}
	if a.Description != "REFERRAL BONUS" {
		t.Errorf("expected description %q, got %q", "REFERRAL BONUS", a.Description)
	}
	if a.Balance == nil || *a.Balance != 1050 {
		t.Errorf("expected estimated balance 1050, got %v", a.Balance)
	}
}

func TestNormalizeApprovedInference(t *testing.T) {
	tests := []struct {
		name     string
		approved *bool
		want     string
	}{
		{"approved true", boolPtr(true), StatusCompleted},
		{"approved false", boolPtr(false), StatusPending},
		{"approved absent", nil, StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Activity{Type: "deposit", Amount: 10, Approved: tt.approved}
			a.Normalize(0)
			if a.Status != tt.want {
				t.Errorf("expected status %q, got %q", tt.want, a.Status)
			}
		})
	}
}

func TestNormalizeKeepsExplicitFields(t *testing.T) {
	a := Activity{
		ID:          "srv-1",
		Type:        "withdrawal",
		Amount:      -20,
		Status:      StatusFailed,
		Date:        "2026-01-02T10:30:00Z",
		Time:        "10:30:00 AM",
		Balance:     floatPtr(980),
		Description: "custom",
	}
	a.Normalize(5000)

	if a.IsTemp {
		t.Error("server id must not be marked temporary")
	}
	if a.Status != StatusFailed {
		t.Errorf("status overwritten: %q", a.Status)
	}
	if a.Date != "2026-01-02T10:30:00Z" || a.Time != "10:30:00 AM" {
		t.Errorf("explicit date/time overwritten: %q %q", a.Date, a.Time)
	}
	if *a.Balance != 980 {
		t.Errorf("explicit balance overwritten: %v", *a.Balance)
	}
	if a.Description != "custom" {
		t.Errorf("explicit description overwritten: %q", a.Description)
	}
}

func TestNormalizeDerivesTimeFromDate(t *testing.T) {
	a := Activity{Type: "deposit", Amount: 1, Date: "2026-03-05T14:05:09Z"}
	a.Normalize(0)

	if a.Time != "2:05:09 PM" {
		t.Errorf("expected time derived from date, got %q", a.Time)
	}
}

func TestNormalizeKeepsMalformedDate(t *testing.T) {
	a := Activity{Type: "deposit", Amount: 1, Date: "not-a-date"}
	a.Normalize(0)

	if a.Date != "not-a-date" {
		t.Errorf("malformed date should be kept verbatim, got %q", a.Date)
	}
	if a.Time == "" {
		t.Error("time should fall back to now when the date is unparseable")
	}
}

func TestNewTempID(t *testing.T) {
	id := NewTempID()
	if !strings.HasPrefix(id, "tmp-") {
		t.Errorf("unexpected temp id format: %q", id)
	}
	if !IsTempID(id) {
		t.Errorf("IsTempID(%q) = false", id)
	}
	if IsTempID("srv-123") {
		t.Error("server id reported as temporary")
	}
}

func TestParseActivityTime(t *testing.T) {
	inputs := []string{
		"2026-01-02T10:30:00Z",
		"2026-01-02T10:30:00.123456",
		"2026-01-02T10:30:00",
		"2026-01-02 10:30:00",
		"2026-01-02",
	}
	for _, in := range inputs {
		if _, err := ParseActivityTime(in); err != nil {
			t.Errorf("ParseActivityTime(%q) failed: %v", in, err)
		}
	}
	if _, err := ParseActivityTime("yesterday"); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
}

func TestEstimateBalance(t *testing.T) {
	if got := EstimateBalance(1000, 50); got != 1050 {
		t.Errorf("EstimateBalance(1000, 50) = %v", got)
	}
	if got := EstimateBalance(1000, -200); got != 800 {
		t.Errorf("EstimateBalance(1000, -200) = %v", got)
	}
}

func TestSameActivity(t *testing.T) {
	base := Activity{ID: "a1", Type: "deposit", Amount: 100, Date: "2026-01-02T10:30:00Z"}

	tests := []struct {
		name string
		a, b Activity
		want bool
	}{
		{"equal ids", base, Activity{ID: "a1", Type: "trade", Amount: 5}, true},
		{"different ids, same composite", base, Activity{ID: "srv-9", Type: "deposit", Amount: 100, Date: base.Date}, true},
		{"different ids, different amount", base, Activity{ID: "srv-9", Type: "deposit", Amount: 101, Date: base.Date}, false},
		{"one id missing, same composite", Activity{Type: "deposit", Amount: 100, Date: base.Date}, base, true},
		{"different type", base, Activity{ID: "srv-9", Type: "withdrawal", Amount: 100, Date: base.Date}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameActivity(tt.a, tt.b); got != tt.want {
				t.Errorf("SameActivity = %v, want %v", got, tt.want)
			}
		})
	}
}
