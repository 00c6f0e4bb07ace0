package mailer

import (
	"context"

	"go.uber.org/zap"

	"github.com/walk2school/rewards-backend/internal/core/port"
	"github.com/walk2school/rewards-backend/internal/infra/logger"
)

// StubMailer logs messages instead of delivering them. Used in development
// and whenever no provider API key is configured.
type StubMailer struct {
	log *zap.Logger
}

func NewStubMailer(log *zap.Logger) *StubMailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &StubMailer{log: log}
}

func (m *StubMailer) Send(_ context.Context, msg port.Message) error {
	m.log.Info("mail delivery stubbed",
		zap.String("recipient", logger.MaskEmail(msg.To)),
		zap.String("subject", msg.Subject),
	)
	return nil
}

var _ port.Mailer = (*StubMailer)(nil)
