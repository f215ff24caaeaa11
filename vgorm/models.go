package vgorm

import (
	"time"

	"github.com/getvessel/vessel/audit"
	"github.com/getvessel/vessel/domain"
)

type gormToken struct {
	OwnerID   string `gorm:"primaryKey;size:64"`
	Type      string `gorm:"primaryKey;size:16"`
	Code      string `gorm:"primaryKey;size:64"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index"`
}

func (gormToken) TableName() string { return "flow_tokens" }

func fromDomainToken(t *domain.Token) *gormToken {
	return &gormToken{
		OwnerID:   t.OwnerID,
		Type:      string(t.Type),
		Code:      t.Code,
		CreatedAt: t.CreatedAt,
		ExpiresAt: t.ExpiresAt,
	}
}

func toDomainToken(t *gormToken) *domain.Token {
	return &domain.Token{
		OwnerID:   t.OwnerID,
		Type:      domain.TokenType(t.Type),
		Code:      t.Code,
		CreatedAt: t.CreatedAt,
		ExpiresAt: t.ExpiresAt,
	}
}

type gormAccountLink struct {
	Provider       string `gorm:"primaryKey;size:32"`
	ProviderUserID string `gorm:"primaryKey;size:191"`
	UserID         string `gorm:"index;size:64;not null"`
	CreatedAt      time.Time
}

func (gormAccountLink) TableName() string { return "social_accounts" }

func fromDomainLink(l *domain.AccountLink) *gormAccountLink {
	return &gormAccountLink{
		Provider:       l.Provider,
		ProviderUserID: l.ProviderUserID,
		UserID:         l.UserID,
		CreatedAt:      l.CreatedAt,
	}
}

func toDomainLink(l *gormAccountLink) *domain.AccountLink {
	return &domain.AccountLink{
		Provider:       l.Provider,
		ProviderUserID: l.ProviderUserID,
		UserID:         l.UserID,
		CreatedAt:      l.CreatedAt,
	}
}

type gormUser struct {
	ID           string `gorm:"primaryKey;size:64"`
	Email        string `gorm:"uniqueIndex;size:191;not null"`
	PasswordHash string `gorm:"size:128"`
	ConfirmedAt  *time.Time
	BlockedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (gormUser) TableName() string { return "users" }

func toDomainUser(u *gormUser) *domain.User {
	return &domain.User{
		ID:          u.ID,
		Email:       u.Email,
		ConfirmedAt: u.ConfirmedAt,
		BlockedAt:   u.BlockedAt,
	}
}

type gormSession struct {
	ID        string `gorm:"primaryKey;size:64"`
	UserID    string `gorm:"index;size:64;not null"`
	IssuedAt  time.Time
	ExpiresAt time.Time `gorm:"index"`
	Active    bool
}

func (gormSession) TableName() string { return "sessions" }

func fromDomainSession(s *domain.Session) *gormSession {
	return &gormSession{
		ID:        s.ID,
		UserID:    s.UserID,
		IssuedAt:  s.IssuedAt,
		ExpiresAt: s.ExpiresAt,
		Active:    s.Active,
	}
}

func toDomainSession(s *gormSession) *domain.Session {
	return &domain.Session{
		ID:        s.ID,
		UserID:    s.UserID,
		IssuedAt:  s.IssuedAt,
		ExpiresAt: s.ExpiresAt,
		Active:    s.Active,
	}
}

type gormAuditEvent struct {
	ID        string `gorm:"primaryKey;size:64"`
	Type      string `gorm:"index;size:64"`
	ActorID   string `gorm:"index;size:64"`
	SubjectID string `gorm:"index;size:64"`
	Status    string `gorm:"size:16"`
	Message   string
	CreatedAt time.Time `gorm:"index"`
}

func (gormAuditEvent) TableName() string { return "audit_events" }

func fromAuditEvent(e *audit.Event) *gormAuditEvent {
	return &gormAuditEvent{
		ID:        e.ID,
		Type:      e.Type,
		ActorID:   e.ActorID,
		SubjectID: e.SubjectID,
		Status:    e.Status,
		Message:   e.Message,
		CreatedAt: e.CreatedAt,
	}
}
