// Package domain defines the entities and storage contracts of the vessel
// support flows: tokens, account links, and the narrow collaborator
// interfaces the flows consume.
//
// Workflows borrow store records for the duration of one request and never
// retain them. Only the operations the flows actually need are exposed; there
// is deliberately no general query surface.
package domain

import (
	"context"
	"time"
)

// Storage combines every persistence contract the support flows use. The
// vgorm package provides a complete implementation; individual interfaces can
// also be satisfied by separate backends (for example a Redis TokenStore next
// to a SQL UserStore).
type Storage interface {
	TokenStore
	LinkStore
	UserStore
	CredentialStore
	SessionStorage
}

// Session is an authenticated session record as kept by a revocable session
// backend. Stateless strategies (JWT) never persist one.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
}

// SessionStorage defines session persistence for revocable session backends.
type SessionStorage interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// SessionGateway establishes and tears down authenticated sessions on behalf
// of the flows. Login returns an opaque session token for the transport layer
// to install.
type SessionGateway interface {
	Login(ctx context.Context, userID string) (string, error)
	Logout(ctx context.Context, sessionToken string) error
}

// Mailer dispatches out-of-band messages carrying token links. Delivery
// itself belongs to the surrounding system; a failure here is surfaced as
// "not sent" rather than treated as a fatal flow error.
type Mailer interface {
	SendRecoveryLink(ctx context.Context, email string, token *Token) error
	SendConfirmationLink(ctx context.Context, email string, token *Token) error
}
