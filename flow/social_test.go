package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/getvessel/vessel/domain"
)

func githubAssertion(providerUserID string) *domain.ProviderAssertion {
	return &domain.ProviderAssertion{
		Provider:       "github",
		ProviderUserID: providerUserID,
		Email:          "dev@example.com",
	}
}

func TestSocialAuthenticateExistingLink(t *testing.T) {
	links := newMemLinkStore(&domain.AccountLink{
		Provider: "github", ProviderUserID: "gh-1", UserID: "42",
	})
	sessions := &memSessions{}
	m := NewSocialManager(links, sessions)

	result, err := m.HandleCallback(context.Background(), githubAssertion("gh-1"), true, "")
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if result.Status != StatusAuthenticated {
		t.Fatalf("expected authenticated, got %s", result.Status)
	}
	if result.UserID != "42" {
		t.Errorf("expected user 42, got %q", result.UserID)
	}
	if result.SessionToken != "session-42" {
		t.Errorf("expected session established, got %q", result.SessionToken)
	}
}

func TestSocialAuthenticateNoLink(t *testing.T) {
	m := NewSocialManager(newMemLinkStore(), &memSessions{})

	result, err := m.HandleCallback(context.Background(), githubAssertion("gh-unknown"), true, "")
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if result.Status != StatusNoLink {
		t.Errorf("expected no_link, got %s", result.Status)
	}
	if result.SessionToken != "" {
		t.Error("no session may be established without a link")
	}
}

func TestSocialConnectNewLink(t *testing.T) {
	links := newMemLinkStore()
	m := NewSocialManager(links, &memSessions{})

	result, err := m.HandleCallback(context.Background(), githubAssertion("gh-1"), false, "42")
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if result.Status != StatusLinked {
		t.Fatalf("expected linked, got %s", result.Status)
	}

	link, err := links.FindLink(context.Background(), "github", "gh-1")
	if err != nil {
		t.Fatalf("link not created: %v", err)
	}
	if link.UserID != "42" {
		t.Errorf("linked to %q, want 42", link.UserID)
	}
}

func TestSocialConnectOwnLinkIsNoop(t *testing.T) {
	links := newMemLinkStore(&domain.AccountLink{
		Provider: "github", ProviderUserID: "gh-1", UserID: "42",
	})
	m := NewSocialManager(links, &memSessions{})

	result, err := m.HandleCallback(context.Background(), githubAssertion("gh-1"), false, "42")
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if result.Status != StatusAlreadyLinked {
		t.Errorf("expected already_linked, got %s", result.Status)
	}
}

func TestSocialConnectForeignLinkConflicts(t *testing.T) {
	links := newMemLinkStore(&domain.AccountLink{
		Provider: "github", ProviderUserID: "gh-1", UserID: "42",
	})
	m := NewSocialManager(links, &memSessions{})

	_, err := m.HandleCallback(context.Background(), githubAssertion("gh-1"), false, "99")
	if !errors.Is(err, domain.ErrLinkConflict) {
		t.Fatalf("expected ErrLinkConflict, got %v", err)
	}

	// the existing record is untouched
	link, err := links.FindLink(context.Background(), "github", "gh-1")
	if err != nil {
		t.Fatalf("link lookup failed: %v", err)
	}
	if link.UserID != "42" {
		t.Errorf("conflict mutated the link: now %q", link.UserID)
	}
}

func TestSocialConnectWithoutUserIsInvariantViolation(t *testing.T) {
	m := NewSocialManager(newMemLinkStore(), &memSessions{})

	_, err := m.HandleCallback(context.Background(), githubAssertion("gh-1"), false, "")
	if err == nil {
		t.Fatal("expected error for connect without a current user")
	}
}

func TestSocialDisconnect(t *testing.T) {
	links := newMemLinkStore(
		&domain.AccountLink{Provider: "github", ProviderUserID: "gh-1", UserID: "42"},
		&domain.AccountLink{Provider: "gitlab", ProviderUserID: "gl-1", UserID: "42"},
	)
	m := NewSocialManager(links, &memSessions{})

	ctx := context.Background()
	if err := m.Disconnect(ctx, "42", "github"); err != nil {
		t.Fatalf("disconnect failed: %v", err)
	}

	if _, err := links.FindLink(ctx, "github", "gh-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected github link removed, got %v", err)
	}
	remaining, err := m.Links(ctx, "42")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Provider != "gitlab" {
		t.Errorf("unexpected remaining links: %v", remaining)
	}
}
