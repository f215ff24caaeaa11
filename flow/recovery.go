// Package flow implements the token-gated support workflows: password
// recovery, account confirmation, and social account linking. Each manager is
// stateless across requests; the only shared state lives in the stores it is
// constructed with.
package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getvessel/vessel/audit"
	"github.com/getvessel/vessel/domain"
	"go.uber.org/zap"
)

// RecoveryManager drives the password recovery flow: request a reset link,
// resolve the mailed token, apply the new password.
type RecoveryManager struct {
	users  domain.UserStore
	creds  domain.CredentialStore
	tokens domain.TokenStore
	mailer domain.Mailer

	auditStore audit.Store
	log        *zap.Logger
	ttl        time.Duration

	// revokePrior invalidates outstanding recovery tokens for a user when a
	// new one is issued, so at most one mailed link is live at a time.
	revokePrior bool

	// AfterReset callbacks run after a successful password change, in order.
	AfterReset []func(ctx context.Context, user *domain.User)
}

func NewRecoveryManager(users domain.UserStore, creds domain.CredentialStore, tokens domain.TokenStore, mailer domain.Mailer) *RecoveryManager {
	auditStore, _ := users.(audit.Store)
	return &RecoveryManager{
		users:       users,
		creds:       creds,
		tokens:      tokens,
		mailer:      mailer,
		auditStore:  auditStore,
		log:         zap.NewNop(),
		ttl:         1 * time.Hour,
		revokePrior: true,
	}
}

// SetTTL overrides the default one-hour token lifetime.
func (m *RecoveryManager) SetTTL(ttl time.Duration) { m.ttl = ttl }

// SetRevokePrior controls whether a new request invalidates earlier
// outstanding recovery tokens for the same user.
func (m *RecoveryManager) SetRevokePrior(v bool) { m.revokePrior = v }

// SetLogger attaches a logger. Without one the manager stays silent.
func (m *RecoveryManager) SetLogger(l *zap.Logger) { m.log = l }

// Request issues a recovery token for the account behind email and mails the
// link. It returns false without error when no such account exists, so the
// response never reveals whether an email is registered. It also returns
// false when the mail could not be dispatched; the token stays valid in that
// case and a later request simply issues a fresh one.
func (m *RecoveryManager) Request(ctx context.Context, email string) (bool, error) {
	user, err := m.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("recovery: lookup user: %w", err)
	}

	if m.revokePrior {
		if err := m.tokens.DeleteTokens(ctx, user.ID, domain.TokenTypeRecovery); err != nil {
			return false, fmt.Errorf("recovery: revoke prior tokens: %w", err)
		}
	}

	token, err := domain.NewToken(user.ID, domain.TokenTypeRecovery, m.ttl)
	if err != nil {
		return false, err
	}
	if err := m.tokens.SaveToken(ctx, token); err != nil {
		return false, fmt.Errorf("recovery: save token: %w", err)
	}

	if err := m.mailer.SendRecoveryLink(ctx, user.Email, token); err != nil {
		// Delivery is fire-and-forget: the caller learns the message was
		// not sent, the token remains valid until its own expiry.
		m.log.Warn("recovery mail not sent",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return false, nil
	}

	m.record(ctx, "identity.recovery.request", user.ID, "success")
	return true, nil
}

// ResolveToken validates a mailed recovery link. An expired token is deleted
// as cleanup before ErrTokenExpired is returned. A valid token is NOT
// consumed here: consumption happens only when the new password is applied,
// so reloading the reset form does not burn the one chance.
func (m *RecoveryManager) ResolveToken(ctx context.Context, ownerID, code string) (*domain.Token, *domain.User, error) {
	token, err := m.tokens.FindToken(ctx, ownerID, code, domain.TokenTypeRecovery)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("recovery: find token: %w", err)
	}

	if token.Expired(time.Now()) {
		if err := m.tokens.ConsumeToken(ctx, token); err != nil && !errors.Is(err, domain.ErrTokenConflict) {
			return nil, nil, fmt.Errorf("recovery: delete expired token: %w", err)
		}
		return nil, nil, domain.ErrTokenExpired
	}

	user, err := m.users.FindByID(ctx, token.OwnerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("recovery: lookup owner: %w", err)
	}

	return token, user, nil
}

// Reset applies the new password and consumes the token. The conditional
// delete inside ConsumeToken is the arbiter between concurrent submissions:
// it runs before the credential change, so the loser of a race observes
// ErrTokenConflict and never applies a second password.
func (m *RecoveryManager) Reset(ctx context.Context, token *domain.Token, newPassword string) error {
	// The form may have been open for a long time; check liveness again.
	if token.Expired(time.Now()) {
		if err := m.tokens.ConsumeToken(ctx, token); err != nil && !errors.Is(err, domain.ErrTokenConflict) {
			return fmt.Errorf("recovery: delete expired token: %w", err)
		}
		return domain.ErrTokenExpired
	}

	if err := m.tokens.ConsumeToken(ctx, token); err != nil {
		if errors.Is(err, domain.ErrTokenConflict) {
			return domain.ErrTokenConflict
		}
		return fmt.Errorf("recovery: consume token: %w", err)
	}

	if err := m.creds.SetPassword(ctx, token.OwnerID, newPassword); err != nil {
		// The token is gone but the credential did not change. Retrying the
		// consume is unsafe, so this needs operator follow-up.
		m.log.Error("recovery inconsistency: token consumed but password not applied",
			zap.String("user_id", token.OwnerID),
			zap.Error(err),
		)
		m.record(ctx, "identity.recovery.reset", token.OwnerID, "failure")
		return fmt.Errorf("recovery: apply password: %w", err)
	}

	m.record(ctx, "identity.recovery.reset", token.OwnerID, "success")

	if len(m.AfterReset) > 0 {
		if user, err := m.users.FindByID(ctx, token.OwnerID); err == nil {
			for _, hook := range m.AfterReset {
				hook(ctx, user)
			}
		}
	}

	return nil
}

func (m *RecoveryManager) record(ctx context.Context, eventType, subjectID, status string) {
	if m.auditStore == nil {
		return
	}
	err := m.auditStore.SaveEvent(ctx, &audit.Event{
		Type:      eventType,
		SubjectID: subjectID,
		Status:    status,
	})
	if err != nil {
		m.log.Warn("audit event not saved", zap.String("type", eventType), zap.Error(err))
	}
}
