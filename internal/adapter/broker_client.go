package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"investra/internal/domain"
)

// BrokerClient talks to the broker backend REST API. It is the only place
// that knows about the backend's response envelopes: every method decodes
// whatever shape the server answered with into one normalized result, so
// callers never see a raw payload.
type BrokerClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewBrokerClient creates a client for the backend at baseURL
func NewBrokerClient(baseURL string) *BrokerClient {
	return &BrokerClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// APIError is a non-2xx answer from the backend. Message carries the
// server's own error text verbatim so forms can display it.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// AuthResult is the normalized outcome of a login or registration
type AuthResult struct {
	Token string
	User  *domain.User
}

// envelope mirrors the backend's standard response wrapper. Legacy
// endpoints answer with the payload at the top level instead; decodeUser
// handles both shapes.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// Register creates a new account and returns the issued token and user
func (c *BrokerClient) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	raw, err := c.post(ctx, "/api/auth/register", "", body)
	if err != nil {
		return nil, err
	}
	return decodeAuthResult(raw)
}

// Login authenticates with email and password. The backend may answer with
// the {status,data:{token,user}} envelope or, on older deployments, with a
// bare {token,user} object; both decode to the same AuthResult.
func (c *BrokerClient) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	body := map[string]string{"email": email, "password": password}
	raw, err := c.post(ctx, "/api/auth/login", "", body)
	if err != nil {
		return "", nil, err
	}
	res, err := decodeAuthResult(raw)
	if err != nil {
		return "", nil, err
	}
	return res.Token, res.User, nil
}

// GetProfile fetches the full profile for the bearer of token
func (c *BrokerClient) GetProfile(ctx context.Context, token string) (*domain.User, error) {
	raw, err := c.get(ctx, "/api/user/me", token)
	if err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

// GetActivities fetches the activity ledger, most recent first
func (c *BrokerClient) GetActivities(ctx context.Context, token string) ([]domain.Activity, error) {
	raw, err := c.get(ctx, "/api/user/activities", token)
	if err != nil {
		return nil, err
	}

	payload := unwrapData(raw)
	var activities []domain.Activity
	if err := json.Unmarshal(payload, &activities); err != nil {
		// Some deployments wrap the list one level deeper
		var wrapped struct {
			Activities []domain.Activity `json:"activities"`
		}
		if err2 := json.Unmarshal(payload, &wrapped); err2 != nil {
			return nil, fmt.Errorf("failed to decode activities: %w", err)
		}
		activities = wrapped.Activities
	}
	return activities, nil
}

// UpdateProfile applies a partial update and returns the resulting user.
// The response is either a {status,data:{user}} envelope or the raw user
// object; whichever arrives becomes the new snapshot.
func (c *BrokerClient) UpdateProfile(ctx context.Context, token string, patch map[string]interface{}) (*domain.User, error) {
	raw, err := c.patch(ctx, "/api/user/me", token, patch)
	if err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

func (c *BrokerClient) get(ctx context.Context, path, token string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, token, nil)
}

func (c *BrokerClient) post(ctx context.Context, path, token string, body interface{}) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, token, body)
}

func (c *BrokerClient) patch(ctx context.Context, path, token string, body interface{}) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, path, token, body)
}

func (c *BrokerClient) do(ctx context.Context, method, path, token string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call backend: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: serverMessage(raw)}
	}
	return raw, nil
}

// serverMessage extracts the backend's own error text from a failure body
func serverMessage(raw []byte) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		var errStr string
		if json.Unmarshal(env.Error, &errStr) == nil && errStr != "" {
			return errStr
		}
	}
	var bare struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &bare) == nil && bare.Error != "" {
		return bare.Error
	}
	return "request failed"
}

// unwrapData returns the data field of an enveloped response, or the body
// itself when there is no envelope
func unwrapData(raw []byte) json.RawMessage {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 {
		return env.Data
	}
	return raw
}

// decodeAuthResult handles both auth response shapes: the standard
// envelope with data:{token,user}, and the legacy flat {token,user} body
func decodeAuthResult(raw []byte) (*AuthResult, error) {
	var payload struct {
		Token string       `json:"token"`
		User  *domain.User `json:"user"`
	}
	if err := json.Unmarshal(unwrapData(raw), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode auth response: %w", err)
	}
	if payload.Token == "" {
		return nil, fmt.Errorf("auth response carried no token")
	}
	if payload.User != nil {
		payload.User.EnsureTransactions()
	}
	return &AuthResult{Token: payload.Token, User: payload.User}, nil
}

// decodeUser handles both user response shapes: data:{user}, data:<user>,
// or the raw user object as the whole body
func decodeUser(raw []byte) (*domain.User, error) {
	payload := unwrapData(raw)

	var wrapped struct {
		User *domain.User `json:"user"`
	}
	if err := json.Unmarshal(payload, &wrapped); err == nil && wrapped.User != nil {
		wrapped.User.EnsureTransactions()
		return wrapped.User, nil
	}

	var u domain.User
	if err := json.Unmarshal(payload, &u); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}
	u.EnsureTransactions()
	return &u, nil
}
