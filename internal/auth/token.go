// Package auth holds the session credential pair.
//
// The Store is the only owner of the access/refresh token pair. It is
// replaced atomically on refresh and cleared on logout; every reader goes
// through the accessors. Tokens are optionally persisted to disk so a
// restart does not force a new login.
package auth

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is the access/refresh token pair issued by the server.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Empty reports whether no credential is held.
func (c Credential) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// Store holds the current credential behind a mutex.
type Store struct {
	mu   sync.RWMutex
	cred Credential
	path string // empty disables persistence
}

// NewStore creates a Store persisting to path. If path is non-empty and a
// saved credential exists it is loaded. Pass "" for a memory-only store.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &s.cred); err != nil {
		// Corrupt token file: start unauthenticated rather than failing.
		s.cred = Credential{}
	}
	return s, nil
}

// Get returns the current credential.
func (s *Store) Get() Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred
}

// AccessToken returns the current access token, or "" when logged out.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred.AccessToken
}

// RefreshToken returns the current refresh token, or "" when logged out.
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred.RefreshToken
}

// Set replaces the credential pair atomically and persists it.
func (s *Store) Set(cred Credential) {
	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()

	if s.path != "" {
		if data, err := json.Marshal(cred); err == nil {
			_ = os.WriteFile(s.path, data, 0600)
		}
	}
}

// Clear drops the credential and removes the persisted copy.
func (s *Store) Clear() {
	s.mu.Lock()
	s.cred = Credential{}
	s.mu.Unlock()

	if s.path != "" {
		_ = os.Remove(s.path)
	}
}

// claims is the subset of the server's JWT payload we care about.
type claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
}

// Username extracts the subject from the access token without verifying
// the signature (the server is the verifier; this is display-only).
func (s *Store) Username() string {
	c, err := parseClaims(s.AccessToken())
	if err != nil {
		return ""
	}
	return c.Subject
}

// AccessExpiresIn returns the time until the access token expires.
// Returns zero when no token is held or the token carries no expiry.
func (s *Store) AccessExpiresIn(now time.Time) time.Duration {
	c, err := parseClaims(s.AccessToken())
	if err != nil || c.ExpiresAt == nil {
		return 0
	}
	d := c.ExpiresAt.Time.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

func parseClaims(token string) (*claims, error) {
	if token == "" {
		return nil, errors.New("no token")
	}
	var c claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
