package domain

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// TokenType names the purpose a token was issued for. A token is only ever
// valid for the purpose it carries.
type TokenType string

const (
	TokenTypeRecovery     TokenType = "recovery"
	TokenTypeConfirmation TokenType = "confirmation"
)

const tokenCodeBytes = 20 // 160 bits of entropy

// Token is a single-use, expiring secret tied to one user and one purpose.
// Tokens are never updated in place: they are created, then read and deleted
// atomically by the workflow that validates them. Single use is enforced by
// the hard delete, not by a flag.
type Token struct {
	OwnerID   string    `json:"owner_id"`
	Code      string    `json:"code"`
	Type      TokenType `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewToken issues a token for ownerID with a fresh random code.
func NewToken(ownerID string, typ TokenType, ttl time.Duration) (*Token, error) {
	raw := make([]byte, tokenCodeBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("domain: generate token code: %w", err)
	}
	now := time.Now()
	return &Token{
		OwnerID:   ownerID,
		Code:      base64.RawURLEncoding.EncodeToString(raw),
		Type:      typ,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Expired reports whether the token is no longer live at the given instant.
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// TokenStore defines the interface for managing transient flow tokens.
type TokenStore interface {
	// SaveToken persists a freshly issued token.
	SaveToken(ctx context.Context, token *Token) error

	// FindToken returns the token matching all three fields exactly, or
	// ErrNotFound. A missing token is deliberately indistinguishable from
	// one that never existed.
	FindToken(ctx context.Context, ownerID, code string, typ TokenType) (*Token, error)

	// ConsumeToken deletes the token. The delete is conditional: when two
	// callers race on the same token, exactly one succeeds and the other
	// gets ErrTokenConflict.
	ConsumeToken(ctx context.Context, token *Token) error

	// DeleteTokens removes every outstanding token of the given type for
	// the owner. Used to revoke stale tokens when a new one is issued.
	DeleteTokens(ctx context.Context, ownerID string, typ TokenType) error

	// DeleteExpiredTokens removes tokens past their expiry. Janitor work,
	// safe to call from a background loop.
	DeleteExpiredTokens(ctx context.Context) error
}
