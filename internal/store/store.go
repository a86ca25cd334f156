package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"investra/internal/domain"
)

// Storage keys. These mirror the keys the web client kept in browser
// localStorage, so a data directory is readable across client versions.
const (
	tokenFile = "authToken"
	userFile  = "user"
)

// FileStore persists the session token and the last-known user snapshot on
// disk. It survives restarts and is cleared wholesale on logout.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a store rooted at dir, creating it if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Token returns the stored session token, if any
func (s *FileStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(filepath.Join(s.dir, tokenFile))
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(b))
	return token, token != ""
}

// SetToken persists the session token
func (s *FileStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeFile(tokenFile, []byte(token))
}

// User returns the last-known user snapshot, if any
func (s *FileStore) User() (*domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(filepath.Join(s.dir, userFile))
	if err != nil {
		return nil, false
	}
	var u domain.User
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, false
	}
	return &u, true
}

// SetUser persists the user snapshot as the write-through mirror of the
// in-memory session state
func (s *FileStore) SetUser(u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	return s.writeFile(userFile, b)
}

// Clear removes everything the store holds. Called on logout.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, name := range []string{tokenFile, userFile} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// writeFile writes via a temp file and rename so a crash mid-write never
// leaves a truncated snapshot behind
func (s *FileStore) writeFile(name string, data []byte) error {
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
