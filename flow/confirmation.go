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

// ConfirmResult reports the outcome of a confirmation attempt. SessionToken
// is set when the post-confirmation auto-login succeeded, so the transport
// layer can install the session.
type ConfirmResult struct {
	Confirmed    bool
	SessionToken string
}

// ConfirmationManager drives account confirmation: issue a confirmation
// token, consume it exactly once, activate the account.
type ConfirmationManager struct {
	users    domain.UserStore
	tokens   domain.TokenStore
	mailer   domain.Mailer
	sessions domain.SessionGateway

	auditStore audit.Store
	log        *zap.Logger
	ttl        time.Duration

	// AfterConfirm callbacks run after a successful confirmation, in order.
	AfterConfirm []func(ctx context.Context, user *domain.User)
}

// NewConfirmationManager wires the confirmation flow. sessions may be nil; the
// flow then skips auto-login after confirming.
func NewConfirmationManager(users domain.UserStore, tokens domain.TokenStore, mailer domain.Mailer, sessions domain.SessionGateway) *ConfirmationManager {
	auditStore, _ := users.(audit.Store)
	return &ConfirmationManager{
		users:      users,
		tokens:     tokens,
		mailer:     mailer,
		sessions:   sessions,
		auditStore: auditStore,
		log:        zap.NewNop(),
		ttl:        24 * time.Hour,
	}
}

// SetTTL overrides the default 24-hour token lifetime.
func (m *ConfirmationManager) SetTTL(ttl time.Duration) { m.ttl = ttl }

// SetLogger attaches a logger. Without one the manager stays silent.
func (m *ConfirmationManager) SetLogger(l *zap.Logger) { m.log = l }

// SendConfirmation issues a confirmation token for the user and mails the
// link, revoking earlier outstanding confirmation tokens first. It returns
// false for an already-confirmed account and, like recovery, when the mail
// could not be dispatched.
func (m *ConfirmationManager) SendConfirmation(ctx context.Context, userID string) (bool, error) {
	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, domain.ErrNotFound
		}
		return false, fmt.Errorf("confirmation: lookup user: %w", err)
	}
	if user.Confirmed() {
		return false, nil
	}

	if err := m.tokens.DeleteTokens(ctx, user.ID, domain.TokenTypeConfirmation); err != nil {
		return false, fmt.Errorf("confirmation: revoke prior tokens: %w", err)
	}

	token, err := domain.NewToken(user.ID, domain.TokenTypeConfirmation, m.ttl)
	if err != nil {
		return false, err
	}
	if err := m.tokens.SaveToken(ctx, token); err != nil {
		return false, fmt.Errorf("confirmation: save token: %w", err)
	}

	if err := m.mailer.SendConfirmationLink(ctx, user.Email, token); err != nil {
		m.log.Warn("confirmation mail not sent",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return false, nil
	}

	m.record(ctx, "identity.confirmation.request", user.ID, "success")
	return true, nil
}

// Confirm consumes a confirmation token and activates the account. An absent
// or expired token yields Confirmed=false without error; expired tokens are
// deleted as cleanup. The consume runs before the activation: if activation
// fails afterwards the token is already gone, which is logged as an
// inconsistency for operator follow-up instead of allowing unlimited retries
// with one leaked token.
func (m *ConfirmationManager) Confirm(ctx context.Context, ownerID, code string) (*ConfirmResult, error) {
	token, err := m.tokens.FindToken(ctx, ownerID, code, domain.TokenTypeConfirmation)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &ConfirmResult{}, nil
		}
		return nil, fmt.Errorf("confirmation: find token: %w", err)
	}

	if token.Expired(time.Now()) {
		if err := m.tokens.ConsumeToken(ctx, token); err != nil && !errors.Is(err, domain.ErrTokenConflict) {
			return nil, fmt.Errorf("confirmation: delete expired token: %w", err)
		}
		return &ConfirmResult{}, nil
	}

	if err := m.tokens.ConsumeToken(ctx, token); err != nil {
		if errors.Is(err, domain.ErrTokenConflict) {
			// A concurrent request won the race; its confirmation stands.
			return &ConfirmResult{}, nil
		}
		return nil, fmt.Errorf("confirmation: consume token: %w", err)
	}

	if err := m.users.MarkConfirmed(ctx, token.OwnerID); err != nil {
		// The token is gone but the account was not activated. Retrying the
		// consume is unsafe, so this needs operator follow-up; the user can
		// be re-issued a token via SendConfirmation.
		m.log.Error("confirmation inconsistency: token consumed but account not activated",
			zap.String("user_id", token.OwnerID),
			zap.Error(err),
		)
		m.record(ctx, "identity.confirmation.confirm", token.OwnerID, "failure")
		return nil, fmt.Errorf("confirmation: activate account: %w", err)
	}

	m.record(ctx, "identity.confirmation.confirm", token.OwnerID, "success")

	result := &ConfirmResult{Confirmed: true}
	if m.sessions != nil {
		sessionToken, err := m.sessions.Login(ctx, token.OwnerID)
		if err != nil {
			// Auto-login is a convenience; the confirmation itself stands.
			m.log.Warn("post-confirmation login failed",
				zap.String("user_id", token.OwnerID),
				zap.Error(err),
			)
		} else {
			result.SessionToken = sessionToken
		}
	}

	if len(m.AfterConfirm) > 0 {
		if user, err := m.users.FindByID(ctx, token.OwnerID); err == nil {
			for _, hook := range m.AfterConfirm {
				hook(ctx, user)
			}
		}
	}

	return result, nil
}

func (m *ConfirmationManager) record(ctx context.Context, eventType, subjectID, status string) {
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
