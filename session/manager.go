package session

import (
	"context"

	"github.com/getvessel/vessel/domain"
)

// Manager implements domain.SessionGateway on top of a Strategy.
type Manager struct {
	strategy Strategy
}

func NewManager(strategy Strategy) *Manager {
	return &Manager{strategy: strategy}
}

func (m *Manager) Login(ctx context.Context, userID string) (string, error) {
	return m.strategy.Issue(ctx, userID)
}

func (m *Manager) Logout(ctx context.Context, sessionToken string) error {
	return m.strategy.Revoke(ctx, sessionToken)
}

// Validate resolves a session token to its session, or domain.ErrNotFound
// for anything expired, revoked, or malformed.
func (m *Manager) Validate(ctx context.Context, sessionToken string) (*domain.Session, error) {
	return m.strategy.Validate(ctx, sessionToken)
}
