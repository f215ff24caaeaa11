// Package vgorm is the GORM implementation of the vessel storage contracts:
// tokens, account links, users, credentials, sessions, and audit events.
package vgorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getvessel/vessel/audit"
	"github.com/getvessel/vessel/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository implements domain.Storage and audit.Store on a single *gorm.DB.
type Repository struct {
	db     *gorm.DB
	hasher domain.Hasher
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, hasher: NewBcryptHasher(12)}
}

// SetHasher replaces the password hasher used by SetPassword.
func (r *Repository) SetHasher(h domain.Hasher) { r.hasher = h }

func (r *Repository) DB() *gorm.DB {
	return r.db
}

func (r *Repository) AutoMigrate(models ...any) error {
	baseModels := []any{
		&gormToken{},
		&gormAccountLink{},
		&gormUser{},
		&gormSession{},
		&gormAuditEvent{},
	}
	return r.db.AutoMigrate(append(baseModels, models...)...)
}

// ---- TokenStore ----

func (r *Repository) SaveToken(ctx context.Context, token *domain.Token) error {
	if err := r.db.WithContext(ctx).Create(fromDomainToken(token)).Error; err != nil {
		return fmt.Errorf("vgorm: save token: %w", err)
	}
	return nil
}

func (r *Repository) FindToken(ctx context.Context, ownerID, code string, typ domain.TokenType) (*domain.Token, error) {
	var row gormToken
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND code = ? AND type = ?", ownerID, code, string(typ)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vgorm: find token: %w", err)
	}
	return toDomainToken(&row), nil
}

// ConsumeToken is a conditional delete: the database arbitrates between
// concurrent consumers, and RowsAffected tells the loser apart.
func (r *Repository) ConsumeToken(ctx context.Context, token *domain.Token) error {
	res := r.db.WithContext(ctx).
		Where("owner_id = ? AND code = ? AND type = ?", token.OwnerID, token.Code, string(token.Type)).
		Delete(&gormToken{})
	if res.Error != nil {
		return fmt.Errorf("vgorm: consume token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTokenConflict
	}
	return nil
}

func (r *Repository) DeleteTokens(ctx context.Context, ownerID string, typ domain.TokenType) error {
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND type = ?", ownerID, string(typ)).
		Delete(&gormToken{}).Error
	if err != nil {
		return fmt.Errorf("vgorm: delete tokens: %w", err)
	}
	return nil
}

func (r *Repository) DeleteExpiredTokens(ctx context.Context) error {
	err := r.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&gormToken{}).Error
	if err != nil {
		return fmt.Errorf("vgorm: delete expired tokens: %w", err)
	}
	return nil
}

// ---- LinkStore ----

func (r *Repository) FindLink(ctx context.Context, provider, providerUserID string) (*domain.AccountLink, error) {
	var row gormAccountLink
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vgorm: find link: %w", err)
	}
	return toDomainLink(&row), nil
}

func (r *Repository) CreateLink(ctx context.Context, link *domain.AccountLink) error {
	err := r.db.WithContext(ctx).Create(fromDomainLink(link)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrLinkConflict
	}
	if err != nil {
		return fmt.Errorf("vgorm: create link: %w", err)
	}
	return nil
}

func (r *Repository) ListLinks(ctx context.Context, userID string) ([]domain.AccountLink, error) {
	var rows []gormAccountLink
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("provider").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("vgorm: list links: %w", err)
	}
	links := make([]domain.AccountLink, 0, len(rows))
	for i := range rows {
		links = append(links, *toDomainLink(&rows[i]))
	}
	return links, nil
}

func (r *Repository) DeleteLink(ctx context.Context, userID, provider string) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		Delete(&gormAccountLink{}).Error
	if err != nil {
		return fmt.Errorf("vgorm: delete link: %w", err)
	}
	return nil
}

// ---- UserStore ----

func (r *Repository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var row gormUser
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vgorm: find user by email: %w", err)
	}
	return toDomainUser(&row), nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var row gormUser
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vgorm: find user: %w", err)
	}
	return toDomainUser(&row), nil
}

func (r *Repository) MarkConfirmed(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&gormUser{}).
		Where("id = ?", id).
		Update("confirmed_at", time.Now())
	if res.Error != nil {
		return fmt.Errorf("vgorm: mark confirmed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CreateUser stores a new account. Not part of the flow contracts; used by
// the surrounding application and by tests to seed accounts.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	row := &gormUser{
		ID:          user.ID,
		Email:       user.Email,
		ConfirmedAt: user.ConfirmedAt,
		BlockedAt:   user.BlockedAt,
	}
	if row.ID == "" {
		row.ID = uuid.New().String()
		user.ID = row.ID
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("vgorm: create user: %w", err)
	}
	return nil
}

// ---- CredentialStore ----

func (r *Repository) SetPassword(ctx context.Context, userID, plaintext string) error {
	hash, err := r.hasher.Hash(plaintext)
	if err != nil {
		return fmt.Errorf("vgorm: hash password: %w", err)
	}
	res := r.db.WithContext(ctx).
		Model(&gormUser{}).
		Where("id = ?", userID).
		Update("password_hash", hash)
	if res.Error != nil {
		return fmt.Errorf("vgorm: set password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
func (r *Repository) CheckPassword(ctx context.Context, userID, plaintext string) (bool, error) {
	var row gormUser
	err := r.db.WithContext(ctx).Select("password_hash").First(&row, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, domain.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("vgorm: load password hash: %w", err)
	}
	return r.hasher.Compare(plaintext, row.PasswordHash), nil
}

// ---- SessionStorage ----

func (r *Repository) CreateSession(ctx context.Context, s *domain.Session) error {
	if err := r.db.WithContext(ctx).Create(fromDomainSession(s)).Error; err != nil {
		return fmt.Errorf("vgorm: create session: %w", err)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var row gormSession
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vgorm: get session: %w", err)
	}
	return toDomainSession(&row), nil
}

func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&gormSession{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("vgorm: delete session: %w", err)
	}
	return nil
}

// ---- audit.Store ----

func (r *Repository) SaveEvent(ctx context.Context, event *audit.Event) error {
	row := fromAuditEvent(event)
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("vgorm: save audit event: %w", err)
	}
	return nil
}
