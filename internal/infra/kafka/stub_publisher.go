package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/walk2school/rewards-backend/internal/core/domain"
	"github.com/walk2school/rewards-backend/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful when no
// broker is reachable, typically during local development.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

func (p *StubPublisher) PublishAccountCreated(_ context.Context, event domain.AccountCreatedEvent) error {
	p.logEvent(TopicAccountCreated, event.CreatedAt, event)
	return nil
}

func (p *StubPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	p.logEvent(TopicPasswordResetRequested, event.RequestedAt, event)
	return nil
}

func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.logEvent(TopicPasswordChanged, event.ChangedAt, event)
	return nil
}

func (p *StubPublisher) PublishPurchaseCompleted(_ context.Context, event domain.PurchaseCompletedEvent) error {
	p.logEvent(TopicPurchaseCompleted, event.PlacedAt, event)
	return nil
}

func (p *StubPublisher) PublishOrderFulfilled(_ context.Context, event domain.OrderFulfilledEvent) error {
	p.logEvent(TopicOrderFulfilled, event.FulfilledAt, event)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
