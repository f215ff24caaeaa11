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

// CallbackStatus names the outcome of one provider callback.
type CallbackStatus string

const (
	// StatusAuthenticated means an existing link matched and a session was
	// established for the linked user.
	StatusAuthenticated CallbackStatus = "authenticated"

	// StatusNoLink means no local account is linked to the asserted provider
	// identity; the surrounding system decides what to offer next.
	StatusNoLink CallbackStatus = "no_link"

	// StatusLinked means the provider identity was linked to the current
	// user's account.
	StatusLinked CallbackStatus = "linked"

	// StatusAlreadyLinked means the provider identity was already linked to
	// the current user; nothing changed.
	StatusAlreadyLinked CallbackStatus = "already_linked"
)

// CallbackResult is the outcome of handling one provider callback.
type CallbackResult struct {
	Status       CallbackStatus
	UserID       string
	SessionToken string // set when Status is StatusAuthenticated
}

// SocialManager handles provider callbacks. A guest caller is authenticated
// against existing links; an authenticated caller gets the asserted identity
// connected to their account.
type SocialManager struct {
	links    domain.LinkStore
	sessions domain.SessionGateway

	auditStore audit.Store
	log        *zap.Logger
}

func NewSocialManager(links domain.LinkStore, sessions domain.SessionGateway) *SocialManager {
	auditStore, _ := links.(audit.Store)
	return &SocialManager{
		links:      links,
		sessions:   sessions,
		auditStore: auditStore,
		log:        zap.NewNop(),
	}
}

// SetLogger attaches a logger. Without one the manager stays silent.
func (m *SocialManager) SetLogger(l *zap.Logger) { m.log = l }

// HandleCallback processes a verified provider assertion. The branch is
// decided once, here, from the caller's authentication state as captured at
// callback time; it is never re-read mid-flow even if the session changes
// underneath the request.
func (m *SocialManager) HandleCallback(ctx context.Context, assertion *domain.ProviderAssertion, callerIsGuest bool, currentUserID string) (*CallbackResult, error) {
	if callerIsGuest {
		return m.authenticate(ctx, assertion)
	}
	return m.connect(ctx, assertion, currentUserID)
}

func (m *SocialManager) authenticate(ctx context.Context, assertion *domain.ProviderAssertion) (*CallbackResult, error) {
	link, err := m.links.FindLink(ctx, assertion.Provider, assertion.ProviderUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &CallbackResult{Status: StatusNoLink}, nil
		}
		return nil, fmt.Errorf("social: lookup link: %w", err)
	}

	sessionToken, err := m.sessions.Login(ctx, link.UserID)
	if err != nil {
		return nil, fmt.Errorf("social: establish session: %w", err)
	}

	m.record(ctx, "identity.social.authenticate", link.UserID, assertion.Provider, "success")
	return &CallbackResult{
		Status:       StatusAuthenticated,
		UserID:       link.UserID,
		SessionToken: sessionToken,
	}, nil
}

func (m *SocialManager) connect(ctx context.Context, assertion *domain.ProviderAssertion, currentUserID string) (*CallbackResult, error) {
	if currentUserID == "" {
		// The access policy routes guests to authenticate; reaching connect
		// without a user is a caller bug.
		return nil, errors.New("social: connect requires an authenticated caller")
	}

	link, err := m.links.FindLink(ctx, assertion.Provider, assertion.ProviderUserID)
	switch {
	case err == nil:
		if link.UserID == currentUserID {
			return &CallbackResult{Status: StatusAlreadyLinked, UserID: currentUserID}, nil
		}
		m.record(ctx, "identity.social.connect", currentUserID, assertion.Provider, "conflict")
		return nil, domain.ErrLinkConflict
	case errors.Is(err, domain.ErrNotFound):
		// fall through to create
	default:
		return nil, fmt.Errorf("social: lookup link: %w", err)
	}

	err = m.links.CreateLink(ctx, &domain.AccountLink{
		Provider:       assertion.Provider,
		ProviderUserID: assertion.ProviderUserID,
		UserID:         currentUserID,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrLinkConflict) {
			// Lost a race against a concurrent connect for the same
			// provider identity.
			return nil, domain.ErrLinkConflict
		}
		return nil, fmt.Errorf("social: create link: %w", err)
	}

	m.record(ctx, "identity.social.connect", currentUserID, assertion.Provider, "success")
	return &CallbackResult{Status: StatusLinked, UserID: currentUserID}, nil
}

// Disconnect removes the user's link for the provider. Removing a link that
// does not exist is not an error.
func (m *SocialManager) Disconnect(ctx context.Context, userID, provider string) error {
	if err := m.links.DeleteLink(ctx, userID, provider); err != nil {
		return fmt.Errorf("social: delete link: %w", err)
	}
	m.record(ctx, "identity.social.disconnect", userID, provider, "success")
	return nil
}

// Links lists the user's connected providers.
func (m *SocialManager) Links(ctx context.Context, userID string) ([]domain.AccountLink, error) {
	links, err := m.links.ListLinks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("social: list links: %w", err)
	}
	return links, nil
}

func (m *SocialManager) record(ctx context.Context, eventType, subjectID, provider, status string) {
	if m.auditStore == nil {
		return
	}
	err := m.auditStore.SaveEvent(ctx, &audit.Event{
		Type:      eventType,
		SubjectID: subjectID,
		Status:    status,
		Message:   provider,
	})
	if err != nil {
		m.log.Warn("audit event not saved", zap.String("type", eventType), zap.Error(err))
	}
}
