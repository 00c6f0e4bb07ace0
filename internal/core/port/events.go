package port

import (
	"context"

	"github.com/walk2school/rewards-backend/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishAccountCreated(ctx context.Context, event domain.AccountCreatedEvent) error
	PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
	PublishPurchaseCompleted(ctx context.Context, event domain.PurchaseCompletedEvent) error
	PublishOrderFulfilled(ctx context.Context, event domain.OrderFulfilledEvent) error
}
