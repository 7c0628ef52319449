package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned when a token is already past its expiry
var ErrTokenExpired = errors.New("token expired")

// TokenStore holds one access token and hands it out only while valid.
// It is safe for concurrent use.
type TokenStore struct {
	mu          sync.RWMutex
	accessToken string
	tokenExpiry time.Time
	now         func() time.Time
}

// NewTokenStore creates an empty token store
func NewTokenStore() *TokenStore {
	return &TokenStore{now: time.Now}
}

// Save stores a token valid for expiresIn; zero or negative means no expiry
func (s *TokenStore) Save(token string, expiresIn time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accessToken = token
	if expiresIn > 0 {
		s.tokenExpiry = s.now().Add(expiresIn)
	} else {
		s.tokenExpiry = time.Time{}
	}
}

// SaveJWT stores a JWT access token using its exp claim as expiry.
// The signature is not verified; the platform does that server-side.
func (s *TokenStore) SaveJWT(token string) error {
	claims, err := ParseClaims(token)
	if err != nil {
		return err
	}

	var expiry time.Time
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
		if !expiry.After(s.now()) {
			return fmt.Errorf("%w at %s", ErrTokenExpired, expiry.Format(time.RFC3339))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
	s.tokenExpiry = expiry
	return nil
}

// ValidToken returns the token, or "" if none is stored or it has expired.
// An expired token is dropped.
func (s *TokenStore) ValidToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken == "" {
		return ""
	}
	if !s.tokenExpiry.IsZero() && !s.now().Before(s.tokenExpiry) {
		s.accessToken = ""
		s.tokenExpiry = time.Time{}
		return ""
	}
	return s.accessToken
}

// IsTokenValid checks if the current token is still valid
func (s *TokenStore) IsTokenValid() bool {
	return s.ValidToken() != ""
}

// Expiry returns the token expiry; zero if unknown or none
func (s *TokenStore) Expiry() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokenExpiry
}

// Clear removes the stored token
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.tokenExpiry = time.Time{}
}

// ParseClaims decodes the registered claims of a JWT without verifying it
func ParseClaims(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return claims, nil
}
