// Package provider turns raw OIDC callbacks into verified provider
// assertions. The code exchange and ID-token signature check happen here;
// the flows downstream only ever see a verified identity claim.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/getvessel/vessel/config"
	"github.com/getvessel/vessel/domain"
	"golang.org/x/oauth2"
)

type providerData struct {
	provider    *oidc.Provider
	oauthConfig *oauth2.Config
}

// Verifier holds the configured OIDC providers.
type Verifier struct {
	providers map[string]*providerData
}

// NewVerifier performs issuer discovery for every configured provider.
func NewVerifier(ctx context.Context, configs map[string]config.OIDCProvider) (*Verifier, error) {
	providers := make(map[string]*providerData)

	for name, cfg := range configs {
		p, err := oidc.NewProvider(ctx, cfg.Issuer)
		if err != nil {
			return nil, fmt.Errorf("provider: discover %s: %w", name, err)
		}

		providers[name] = &providerData{
			provider: p,
			oauthConfig: &oauth2.Config{
				ClientID:     cfg.ClientID,
				ClientSecret: cfg.ClientSecret,
				Endpoint:     p.Endpoint(),
				RedirectURL:  cfg.RedirectURL,
				Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
			},
		}
	}

	return &Verifier{providers: providers}, nil
}

// AuthURL returns the provider's authorization URL for the given state.
func (v *Verifier) AuthURL(providerID, state string) (string, error) {
	p, ok := v.providers[providerID]
	if !ok {
		return "", errors.New("provider: not configured: " + providerID)
	}
	return p.oauthConfig.AuthCodeURL(state), nil
}

// Callback exchanges the authorization code and verifies the ID token,
// returning the asserted identity.
func (v *Verifier) Callback(ctx context.Context, providerID, code string) (*domain.ProviderAssertion, error) {
	p, ok := v.providers[providerID]
	if !ok {
		return nil, errors.New("provider: not configured: " + providerID)
	}

	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("provider: code exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("provider: no id_token in token response")
	}

	verifier := p.provider.Verifier(&oidc.Config{ClientID: p.oauthConfig.ClientID})
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("provider: verify id token: %w", err)
	}

	var claims struct {
		Subject string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("provider: parse claims: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("provider: id token without subject")
	}

	return &domain.ProviderAssertion{
		Provider:       providerID,
		ProviderUserID: claims.Subject,
		Email:          claims.Email,
		Name:           claims.Name,
	}, nil
}
