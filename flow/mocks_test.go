package flow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/getvessel/vessel/domain"
)

type memTokenStore struct {
	mu      sync.Mutex
	tokens  map[string]*domain.Token
	saveErr error
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[string]*domain.Token)}
}

func tokenKey(ownerID string, typ domain.TokenType, code string) string {
	return ownerID + "|" + string(typ) + "|" + code
}

func (s *memTokenStore) SaveToken(ctx context.Context, token *domain.Token) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *token
	s.tokens[tokenKey(token.OwnerID, token.Type, token.Code)] = &copied
	return nil
}

func (s *memTokenStore) FindToken(ctx context.Context, ownerID, code string, typ domain.TokenType) (*domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[tokenKey(ownerID, typ, code)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *token
	return &copied, nil
}

func (s *memTokenStore) ConsumeToken(ctx context.Context, token *domain.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tokenKey(token.OwnerID, token.Type, token.Code)
	if _, ok := s.tokens[key]; !ok {
		return domain.ErrTokenConflict
	}
	delete(s.tokens, key)
	return nil
}

func (s *memTokenStore) DeleteTokens(ctx context.Context, ownerID string, typ domain.TokenType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := ownerID + "|" + string(typ) + "|"
	for key := range s.tokens {
		if strings.HasPrefix(key, prefix) {
			delete(s.tokens, key)
		}
	}
	return nil
}

func (s *memTokenStore) DeleteExpiredTokens(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for key, token := range s.tokens {
		if token.Expired(now) {
			delete(s.tokens, key)
		}
	}
	return nil
}

func (s *memTokenStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

type memUserStore struct {
	users      map[string]*domain.User
	confirmErr error
}

func newMemUserStore(users ...*domain.User) *memUserStore {
	s := &memUserStore{users: make(map[string]*domain.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memUserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memUserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (s *memUserStore) MarkConfirmed(ctx context.Context, id string) error {
	if s.confirmErr != nil {
		return s.confirmErr
	}
	u, ok := s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := time.Now()
	u.ConfirmedAt = &now
	return nil
}

type memCredStore struct {
	passwords map[string]string
	setErr    error
}

func newMemCredStore() *memCredStore {
	return &memCredStore{passwords: make(map[string]string)}
}

func (s *memCredStore) SetPassword(ctx context.Context, userID, plaintext string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.passwords[userID] = plaintext
	return nil
}

type memMailer struct {
	recovery     []*domain.Token
	confirmation []*domain.Token
	fail         bool
}

func (m *memMailer) SendRecoveryLink(ctx context.Context, email string, token *domain.Token) error {
	if m.fail {
		return errors.New("smtp unreachable")
	}
	m.recovery = append(m.recovery, token)
	return nil
}

func (m *memMailer) SendConfirmationLink(ctx context.Context, email string, token *domain.Token) error {
	if m.fail {
		return errors.New("smtp unreachable")
	}
	m.confirmation = append(m.confirmation, token)
	return nil
}

type memSessions struct {
	logins []string
	fail   bool
}

func (s *memSessions) Login(ctx context.Context, userID string) (string, error) {
	if s.fail {
		return "", errors.New("session backend down")
	}
	s.logins = append(s.logins, userID)
	return "session-" + userID, nil
}

func (s *memSessions) Logout(ctx context.Context, sessionToken string) error {
	return nil
}

type memLinkStore struct {
	links map[string]*domain.AccountLink
}

func newMemLinkStore(links ...*domain.AccountLink) *memLinkStore {
	s := &memLinkStore{links: make(map[string]*domain.AccountLink)}
	for _, l := range links {
		s.links[l.Provider+"|"+l.ProviderUserID] = l
	}
	return s
}

func (s *memLinkStore) FindLink(ctx context.Context, provider, providerUserID string) (*domain.AccountLink, error) {
	link, ok := s.links[provider+"|"+providerUserID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *link
	return &copied, nil
}

func (s *memLinkStore) CreateLink(ctx context.Context, link *domain.AccountLink) error {
	key := link.Provider + "|" + link.ProviderUserID
	if _, ok := s.links[key]; ok {
		return domain.ErrLinkConflict
	}
	copied := *link
	s.links[key] = &copied
	return nil
}

func (s *memLinkStore) ListLinks(ctx context.Context, userID string) ([]domain.AccountLink, error) {
	var out []domain.AccountLink
	for _, l := range s.links {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *memLinkStore) DeleteLink(ctx context.Context, userID, provider string) error {
	for key, l := range s.links {
		if l.UserID == userID && l.Provider == provider {
			delete(s.links, key)
		}
	}
	return nil
}
