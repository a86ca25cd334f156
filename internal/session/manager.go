package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"investra/internal/domain"
)

// ErrNoSession is returned by operations that need a stored token when
// there is none.
var ErrNoSession = errors.New("no active session")

// BackendClient is the slice of the broker API the session manager needs.
// investra/internal/adapter.BrokerClient satisfies it.
type BackendClient interface {
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	GetProfile(ctx context.Context, token string) (*domain.User, error)
	UpdateProfile(ctx context.Context, token string, patch map[string]interface{}) (*domain.User, error)
}

// Store persists the token and the last-known user snapshot across
// restarts. investra/internal/store.FileStore satisfies it.
type Store interface {
	Token() (string, bool)
	SetToken(token string) error
	User() (*domain.User, bool)
	SetUser(u *domain.User) error
	Clear() error
}

// EventType labels a session state change
type EventType string

const (
	EventAuthChanged EventType = "auth-changed"
	EventUserUpdated EventType = "user-updated"
)

// Event is delivered to subscribers whenever session state changes
type Event struct {
	Type EventType
	User *domain.User
}

// State is a point-in-time view of the session
type State struct {
	User            *domain.User
	IsAuthenticated bool
	Loading         bool
	Err             string
}

// Manager is the single source of truth for who is logged in and what is
// known about them. It reconciles the initial load, explicit login and
// logout, and out-of-band user updates into one
// consistent user snapshot, and publishes changes to subscribers.
type Manager struct {
	client BackendClient
	store  Store
	log    *logrus.Logger

	mu      sync.RWMutex
	token   string
	user    *domain.User
	loading bool
	lastErr string

	subsMu sync.RWMutex
	subs   map[chan Event]struct{}
	closed bool
}

// NewManager creates a session manager. Call Initialize to restore a
// persisted session, and Close when done.
func NewManager(client BackendClient, store Store, log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.New()
	}
	return &Manager{
		client: client,
		store:  store,
		log:    log,
		subs:   make(map[chan Event]struct{}),
	}
}

// Initialize restores the session from the store. Without a stored token
// the session starts logged out; with one, a full profile load runs and
// decides whether the token is still good.
func (m *Manager) Initialize(ctx context.Context) error {
	token, ok := m.store.Token()
	if !ok {
		m.mu.Lock()
		m.token = ""
		m.user = nil
		m.loading = false
		m.mu.Unlock()
		return nil
	}

	m.mu.Lock()
	m.token = token
	m.loading = true
	m.mu.Unlock()

	return m.loadUserData(ctx)
}

// Login authenticates with the backend. On success the token is persisted
// and a full profile reload runs, because the login response may carry
// only a partial user record. On failure the error text is recorded and
// returned so the caller can display it; a previously stored token is
// left untouched.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.User, error) {
	m.setLoading(true)

	token, user, err := m.client.Login(ctx, email, password)
	if err != nil {
		m.failWith(fmt.Sprintf("login failed: %v", err))
		return nil, err
	}

	if err := m.store.SetToken(token); err != nil {
		m.log.Warnf("Failed to persist session token: %v", err)
	}

	m.mu.Lock()
	m.token = token
	if user != nil {
		m.user = user
	}
	m.lastErr = ""
	m.mu.Unlock()

	m.publish(Event{Type: EventAuthChanged, User: user})

	// The login response may be partial; fetch the complete record.
	if err := m.loadUserData(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user.Clone(), nil
}

// Logout clears the persisted token and all in-memory session state. The
// server is never called: the token simply stops being sent.
func (m *Manager) Logout() {
	if err := m.store.Clear(); err != nil {
		m.log.Warnf("Failed to clear session store: %v", err)
	}

	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.lastErr = ""
	m.loading = false
	m.mu.Unlock()

	m.publish(Event{Type: EventAuthChanged})
}

// RefreshStats performs a full profile reload. Pages that need
// guaranteed-fresh data call this after mutating operations.
func (m *Manager) RefreshStats(ctx context.Context) error {
	return m.loadUserData(ctx)
}

// UpdateUser applies a partial profile update on the backend and adopts
// whatever user object it returns as the new snapshot.
func (m *Manager) UpdateUser(ctx context.Context, patch map[string]interface{}) (*domain.User, error) {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()
	if token == "" {
		return nil, ErrNoSession
	}

	user, err := m.client.UpdateProfile(ctx, token, patch)
	if err != nil {
		m.failWith(fmt.Sprintf("profile update failed: %v", err))
		return nil, err
	}

	m.adoptUser(user)
	return user.Clone(), nil
}

// NotifyAuthChanged re-derives the authentication state from the store and
// triggers a full reload. Other subsystems call this after changing the
// stored credentials out-of-band.
func (m *Manager) NotifyAuthChanged(ctx context.Context) {
	token, ok := m.store.Token()
	if !ok {
		m.Logout()
		return
	}

	m.mu.Lock()
	m.token = token
	m.mu.Unlock()

	if err := m.loadUserData(ctx); err != nil {
		m.log.Warnf("Reload after auth change failed: %v", err)
	}
}

// NotifyUserUpdated folds an out-of-band update (for example an admin
// crediting the account) into the current user without a refetch. Updates
// for a different user, or with no user loaded, are ignored.
func (m *Manager) NotifyUserUpdated(upd UserUpdate) {
	m.mu.Lock()
	merged, ok := mergeUserUpdate(m.user, upd)
	if !ok {
		m.mu.Unlock()
		return
	}
	m.user = merged
	snapshot := merged.Clone()
	m.mu.Unlock()

	// Mirror only; the authoritative write already happened server-side.
	if err := m.store.SetUser(snapshot); err != nil {
		m.log.Warnf("Failed to mirror merged user: %v", err)
	}

	m.publish(Event{Type: EventUserUpdated, User: snapshot})
}

// Snapshot returns the current session state
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{
		User:            m.user.Clone(),
		IsAuthenticated: m.token != "" && m.user != nil,
		Loading:         m.loading,
		Err:             m.lastErr,
	}
}

// Subscribe registers for session events. The returned channel receives
// every subsequent state change; call the returned function to
// unsubscribe. Slow subscribers drop events rather than block the
// manager.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	m.subsMu.Lock()
	if m.closed {
		m.subsMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	m.subs[ch] = struct{}{}
	m.subsMu.Unlock()

	return ch, func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		if _, ok := m.subs[ch]; ok {
			delete(m.subs, ch)
			close(ch)
		}
	}
}

// Close shuts the manager down and closes all subscriber channels
func (m *Manager) Close() {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for ch := range m.subs {
		close(ch)
	}
	m.subs = make(map[chan Event]struct{})
}

// loadUserData fetches the full profile and replaces the user snapshot.
// Overlapping calls are allowed; whichever response completes last wins,
// which is safe because responses are full snapshots. A profile without a
// username is treated as an authentication failure: a half-populated
// session is never rendered.
func (m *Manager) loadUserData(ctx context.Context) error {
	m.mu.RLock()
	token := m.token
	m.mu.RUnlock()
	if token == "" {
		m.mu.Lock()
		m.user = nil
		m.loading = false
		m.mu.Unlock()
		return ErrNoSession
	}

	m.setLoading(true)

	user, err := m.client.GetProfile(ctx, token)
	if err != nil {
		m.dropSession(fmt.Sprintf("failed to load profile: %v", err))
		return err
	}
	if user == nil || user.Username == "" {
		err := errors.New("profile response missing username")
		m.dropSession("session is no longer valid, please sign in again")
		return err
	}

	normalizeUser(user)

	if err := m.store.SetToken(token); err != nil {
		m.log.Warnf("Failed to persist session token: %v", err)
	}
	m.adoptUser(user)
	return nil
}

// adoptUser installs a fresh full snapshot, mirrors it to the store and
// notifies subscribers
func (m *Manager) adoptUser(user *domain.User) {
	m.mu.Lock()
	m.user = user.Clone()
	m.loading = false
	m.lastErr = ""
	m.mu.Unlock()

	if err := m.store.SetUser(user); err != nil {
		m.log.Warnf("Failed to persist user snapshot: %v", err)
	}

	m.publish(Event{Type: EventUserUpdated, User: user.Clone()})
}

// dropSession forces the logged-out state after a failed or semantically
// incomplete profile load. The stored token is kept so an explicit retry
// can still succeed; only Logout discards it.
func (m *Manager) dropSession(msg string) {
	m.mu.Lock()
	m.user = nil
	m.loading = false
	m.lastErr = msg
	m.mu.Unlock()

	m.publish(Event{Type: EventAuthChanged})
}

func (m *Manager) failWith(msg string) {
	m.mu.Lock()
	m.lastErr = msg
	m.loading = false
	m.mu.Unlock()
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}

// publish broadcasts an event without blocking on slow subscribers
func (m *Manager) publish(ev Event) {
	m.subsMu.RLock()
	defer m.subsMu.RUnlock()

	dropped := 0
	for ch := range m.subs {
		select {
		case ch <- ev:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		m.log.Warnf("Dropped %s event for %d slow subscribers", ev.Type, dropped)
	}
}

// normalizeUser applies the activity defaulting rules to a full profile
// response before it becomes the current snapshot
func normalizeUser(u *domain.User) {
	u.EnsureTransactions()
	for i := range u.Transactions {
		u.Transactions[i].Normalize(u.Balance)
	}
}
