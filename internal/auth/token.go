package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrStaticTokenCannotRefresh = errors.New("static token cannot be refreshed")
	ErrTokenExpired             = errors.New("access token expired")
	ErrNoToken                  = errors.New("no access token set")
)

// TokenManager supplies bearer tokens to the HTTP layer.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
	SetToken(token string, expiresAt time.Time)
}

// StaticTokenManager serves a fixed token, such as a personal access token.
// A zero expiry means the token does not expire.
type StaticTokenManager struct {
	mutex     sync.RWMutex
	token     string
	expiresAt time.Time
}

// NewStaticTokenManager creates a token manager for a non-expiring token.
func NewStaticTokenManager(token string) *StaticTokenManager {
	return &StaticTokenManager{token: token}
}

// GetToken returns the token unless it is missing or expired.
func (m *StaticTokenManager) GetToken(ctx context.Context) (string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.token == "" {
		return "", ErrNoToken
	}

	if !m.expiresAt.IsZero() && time.Now().After(m.expiresAt) {
		return "", ErrTokenExpired
	}

	return m.token, nil
}

// RefreshToken always fails; static tokens are replaced with SetToken.
func (m *StaticTokenManager) RefreshToken(ctx context.Context) error {
	return ErrStaticTokenCannotRefresh
}

// SetToken replaces the token.
func (m *StaticTokenManager) SetToken(token string, expiresAt time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.token = token
	m.expiresAt = expiresAt
}
