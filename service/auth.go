package service

import (
	"fmt"
	"os"
	"strconv"
	"sync"
)

// AuthUser is the identity resolved for the current session.
type AuthUser struct {
	ID    string
	Email string
}

// AuthProvider resolves the current session. An error means "not
// authenticated", it is the expected signal rather than a fault.
type AuthProvider interface {
	CurrentUser() (*AuthUser, error)
}

// SessionAuth resolves the current user from the locally held access token.
// The token is set on login, or taken from AUTH_TOKEN at startup so a session
// can survive a restart.
type SessionAuth struct {
	mu    sync.RWMutex
	token string
	ts    TokenService
}

func NewSessionAuth() *SessionAuth {
	return &SessionAuth{token: os.Getenv("AUTH_TOKEN")}
}

// SetToken replaces the session token after a successful login.
func (a *SessionAuth) SetToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
}

// CurrentUser ...
func (a *SessionAuth) CurrentUser() (*AuthUser, error) {
	a.mu.RLock()
	token := a.token
	a.mu.RUnlock()

	if token == "" {
		return nil, fmt.Errorf("no session token")
	}
	parsed, err := a.ts.VerifyTokenString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	details, err := a.ts.MetadataFromToken(parsed)
	if err != nil {
		return nil, err
	}
	return &AuthUser{
		ID:    strconv.FormatInt(details.UserID, 10),
		Email: details.Email,
	}, nil
}
