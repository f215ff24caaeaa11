package vessel

import (
	"github.com/getvessel/vessel/domain"
	"github.com/getvessel/vessel/flow"
	"github.com/getvessel/vessel/session"
	"github.com/getvessel/vessel/vgorm"
	"gorm.io/gorm"
)

// NewDefaultRecoveryManager creates a RecoveryManager backed by the gorm
// repository.
func NewDefaultRecoveryManager(db *gorm.DB, mailer domain.Mailer) *flow.RecoveryManager {
	repo := vgorm.NewRepository(db)
	return flow.NewRecoveryManager(repo, repo, repo, mailer)
}

// NewDefaultConfirmationManager creates a ConfirmationManager backed by the
// gorm repository.
func NewDefaultConfirmationManager(db *gorm.DB, mailer domain.Mailer, sessions domain.SessionGateway) *flow.ConfirmationManager {
	repo := vgorm.NewRepository(db)
	return flow.NewConfirmationManager(repo, repo, mailer, sessions)
}

// NewDefaultSocialManager creates a SocialManager backed by the gorm
// repository.
func NewDefaultSocialManager(db *gorm.DB, sessions domain.SessionGateway) *flow.SocialManager {
	repo := vgorm.NewRepository(db)
	return flow.NewSocialManager(repo, sessions)
}

// NewDefaultSessionManager creates a database-backed session manager.
func NewDefaultSessionManager(db *gorm.DB) *session.Manager {
	repo := vgorm.NewRepository(db)
	return session.NewManager(session.NewDatabaseStrategy(repo))
}
