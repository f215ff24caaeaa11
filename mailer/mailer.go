// Package mailer contains the development implementation of domain.Mailer.
// Production deployments plug in their own delivery backend; this one writes
// the links to the log so flows can be exercised end to end without SMTP.
package mailer

import (
	"context"
	"fmt"

	"github.com/getvessel/vessel/domain"
	"go.uber.org/zap"
)

// LogMailer logs token links instead of delivering them.
type LogMailer struct {
	log     *zap.Logger
	baseURL string
}

func NewLogMailer(log *zap.Logger, baseURL string) *LogMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogMailer{log: log, baseURL: baseURL}
}

func (m *LogMailer) SendRecoveryLink(ctx context.Context, email string, token *domain.Token) error {
	m.log.Info("recovery link",
		zap.String("email", email),
		zap.String("url", m.link("recovery", token)),
	)
	return nil
}

func (m *LogMailer) SendConfirmationLink(ctx context.Context, email string, token *domain.Token) error {
	m.log.Info("confirmation link",
		zap.String("email", email),
		zap.String("url", m.link("confirm", token)),
	)
	return nil
}

func (m *LogMailer) link(action string, token *domain.Token) string {
	return fmt.Sprintf("%s/%s/%s/%s", m.baseURL, action, token.OwnerID, token.Code)
}
