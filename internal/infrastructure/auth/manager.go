package auth

import (
	"crypto/subtle"
	"errors"
)

var ErrUnauthenticated = errors.New("unauthenticated")

type ServiceToken struct {
	Name  string
	Token string
}

// Manager authenticates callers by service token. With no tokens configured
// authentication is disabled and every call is let through.
type Manager struct {
	tokens []ServiceToken
}

func NewManager(serviceTokens []ServiceToken) *Manager {
	tokens := make([]ServiceToken, 0, len(serviceTokens))
	for _, t := range serviceTokens {
		if t.Token == "" {
			continue
		}
		if t.Name == "" {
			t.Name = "service"
		}
		tokens = append(tokens, t)
	}
	return &Manager{tokens: tokens}
}

func (m *Manager) Enabled() bool { return m != nil && len(m.tokens) > 0 }

// Authenticate returns the token's subject name.
func (m *Manager) Authenticate(token string) (string, error) {
	if !m.Enabled() {
		return "", nil
	}
	if token == "" {
		return "", ErrUnauthenticated
	}
	for _, t := range m.tokens {
		if subtle.ConstantTimeCompare([]byte(t.Token), []byte(token)) == 1 {
			return t.Name, nil
		}
	}
	return "", ErrUnauthenticated
}
