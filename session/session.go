// Package session establishes and validates authenticated sessions on behalf
// of the support flows. Two strategies are provided: database-backed sessions
// that can be revoked, and stateless JWT sessions.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getvessel/vessel/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Strategy issues, validates, and revokes session tokens.
type Strategy interface {
	Issue(ctx context.Context, userID string) (string, error)
	Validate(ctx context.Context, token string) (*domain.Session, error)
	Revoke(ctx context.Context, token string) error
}

// DatabaseStrategy keeps sessions in the store, so they can be revoked.
type DatabaseStrategy struct {
	store domain.SessionStorage
	ttl   time.Duration
}

func NewDatabaseStrategy(store domain.SessionStorage) *DatabaseStrategy {
	return &DatabaseStrategy{store: store, ttl: 24 * time.Hour}
}

// SetTTL overrides the default 24-hour session lifetime.
func (s *DatabaseStrategy) SetTTL(ttl time.Duration) { s.ttl = ttl }

func (s *DatabaseStrategy) Issue(ctx context.Context, userID string) (string, error) {
	now := time.Now()
	sess := &domain.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
		Active:    true,
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return "", fmt.Errorf("session: create: %w", err)
	}
	return sess.ID, nil
}

func (s *DatabaseStrategy) Validate(ctx context.Context, token string) (*domain.Session, error) {
	sess, err := s.store.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("session: load: %w", err)
	}
	if !sess.Active || sess.ExpiresAt.Before(time.Now()) {
		return nil, domain.ErrNotFound
	}
	return sess, nil
}

func (s *DatabaseStrategy) Revoke(ctx context.Context, token string) error {
	return s.store.DeleteSession(ctx, token)
}

// JWTStrategy issues stateless HMAC-signed tokens. Revoke is a no-op; the
// token simply outlives nothing past its expiry.
type JWTStrategy struct {
	signingKey []byte
	ttl        time.Duration
}

func NewJWTStrategy(signingKey []byte, ttl time.Duration) *JWTStrategy {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &JWTStrategy{signingKey: signingKey, ttl: ttl}
}

func (s *JWTStrategy) Issue(ctx context.Context, userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTStrategy) Validate(ctx context.Context, token string) (*domain.Session, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("session: unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, domain.ErrNotFound
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, domain.ErrNotFound
	}
	return &domain.Session{
		ID:        claims.ID,
		UserID:    claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		Active:    true,
	}, nil
}

func (s *JWTStrategy) Revoke(ctx context.Context, token string) error {
	return nil
}
