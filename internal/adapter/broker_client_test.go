package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoginDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "success",
			"data": {
				"token": "tok-1",
				"user": {"id": "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", "username": "ana", "balance": 1000}
			}
		}`))
	}))
	defer srv.Close()

	c := NewBrokerClient(srv.URL)
	token, user, err := c.Login(context.Background(), "ana@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "tok-1" {
		t.Errorf("token = %q", token)
	}
	if user == nil || user.Username != "ana" || user.Balance != 1000 {
		t.Errorf("user = %+v", user)
	}
	if user.Transactions == nil {
		t.Error("transactions must be initialized on decode")
	}
}

func TestLoginDecodesFlatBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token": "tok-flat", "user": {"id": "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", "username": "ana"}}`))
	}))
	defer srv.Close()

	c := NewBrokerClient(srv.URL)
	token, user, err := c.Login(context.Background(), "ana@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "tok-flat" || user.Username != "ana" {
		t.Errorf("flat body not decoded: %q %+v", token, user)
	}
}

func TestLoginErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status": "error", "message": "Invalid credentials"}`))
	}))
	defer srv.Close()

	c := NewBrokerClient(srv.URL)
	_, _, err := c.Login(context.Background(), "ana@example.com", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if apiErr.Message != "Invalid credentials" {
		t.Errorf("server message not preserved: %q", apiErr.Message)
	}
}

func TestGetProfileSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "success",
			"data": {"id": "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", "username": "ana", "kycStatus": "verified", "balance": 1000}
		}`))
	}))
	defer srv.Close()

	c := NewBrokerClient(srv.URL)
	user, err := c.GetProfile(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if user.Username != "ana" || user.KYCStatus != "verified" {
		t.Errorf("user = %+v", user)
	}
}

func TestGetProfileDecodesRawUserBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", "username": "ana", "balance": 42}`))
	}))
	defer srv.Close()

	c := NewBrokerClient(srv.URL)
	user, err := c.GetProfile(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if user.Balance != 42 {
		t.Errorf("raw body not decoded: %+v", user)
	}
}

func TestGetActivitiesBareArrayAndWrapped(t *testing.T) {
	bodies := []string{
		`{"status": "success", "data": [{"id": "a1", "type": "deposit", "amount": 10}]}`,
		`{"status": "success", "data": {"activities": [{"id": "a1", "type": "deposit", "amount": 10}]}}`,
		`[{"id": "a1", "type": "deposit", "amount": 10}]`,
	}

	for _, body := range bodies {
		body := body
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(body))
		}))

		c := NewBrokerClient(srv.URL)
		activities, err := c.GetActivities(context.Background(), "tok-1")
		srv.Close()

		if err != nil {
			t.Errorf("GetActivities(%s): %v", body, err)
			continue
		}
		if len(activities) != 1 || activities[0].ID != "a1" {
			t.Errorf("GetActivities(%s) = %+v", body, activities)
		}
	}
}

func TestUpdateProfileUsesPatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "success",
			"data": {"user": {"id": "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", "username": "ana2"}}
		}`))
	}))
	defer srv.Close()

	c := NewBrokerClient(srv.URL)
	user, err := c.UpdateProfile(context.Background(), "tok-1", map[string]interface{}{"username": "ana2"})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if user.Username != "ana2" {
		t.Errorf("user = %+v", user)
	}
}

func TestRegisterMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "success", "data": {"user": {"username": "ana"}}}`))
	}))
	defer srv.Close()

	c := NewBrokerClient(srv.URL)
	if _, err := c.Register(context.Background(), "ana", "ana@example.com", "secret"); err == nil {
		t.Error("expected error when the auth response has no token")
	}
}
