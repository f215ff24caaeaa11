package domain

import (
	"context"
	"time"
)

// AccountLink associates an external identity provider's user identifier with
// a local account. The pair (Provider, ProviderUserID) maps to at most one
// local user at any time.
type AccountLink struct {
	Provider       string    `json:"provider"`
	ProviderUserID string    `json:"provider_user_id"`
	UserID         string    `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// ProviderAssertion is a verified identity claim received from an external
// provider callback. Verification of the raw assertion (code exchange, ID
// token signature) happens before this type is constructed.
type ProviderAssertion struct {
	Provider       string `json:"provider"`
	ProviderUserID string `json:"provider_user_id"`
	Email          string `json:"email,omitempty"`
	Name           string `json:"name,omitempty"`
}

// LinkStore defines the interface for social account link persistence.
type LinkStore interface {
	// FindLink returns the link for the provider identity, or ErrNotFound.
	FindLink(ctx context.Context, provider, providerUserID string) (*AccountLink, error)

	// CreateLink stores a new link. A concurrent create for the same
	// provider identity fails with ErrLinkConflict.
	CreateLink(ctx context.Context, link *AccountLink) error

	// ListLinks returns every link owned by the user.
	ListLinks(ctx context.Context, userID string) ([]AccountLink, error)

	// DeleteLink removes the user's link for the provider, if any.
	DeleteLink(ctx context.Context, userID, provider string) error
}
