package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/walk2school/rewards-backend/internal/core/domain"
	"github.com/walk2school/rewards-backend/internal/core/port"
	"github.com/walk2school/rewards-backend/internal/infra/config"
)

const schemaVersion = "1.0"

// Topic names for published domain events.
const (
	TopicAccountCreated         = "rewards.account.created"
	TopicPasswordResetRequested = "rewards.password.reset_requested"
	TopicPasswordChanged        = "rewards.password.changed"
	TopicPurchaseCompleted      = "rewards.purchase.completed"
	TopicOrderFulfilled         = "rewards.order.fulfilled"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: map[string]string{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	value, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(value),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAccountCreated publishes account registration events.
func (p *EventPublisher) PublishAccountCreated(ctx context.Context, event domain.AccountCreatedEvent) error {
	return p.publish(ctx, event.EventID, TopicAccountCreated, event.UserID, event.CreatedAt, event)
}

// PublishPasswordResetRequested publishes reset-email dispatch events.
func (p *EventPublisher) PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error {
	return p.publish(ctx, event.EventID, TopicPasswordResetRequested, event.UserID, event.RequestedAt, event)
}

// PublishPasswordChanged publishes reset-token redemption events.
func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	return p.publish(ctx, event.EventID, TopicPasswordChanged, event.UserID, event.ChangedAt, event)
}

// PublishPurchaseCompleted publishes committed purchase events.
func (p *EventPublisher) PublishPurchaseCompleted(ctx context.Context, event domain.PurchaseCompletedEvent) error {
	return p.publish(ctx, event.EventID, TopicPurchaseCompleted, event.UserID, event.PlacedAt, event)
}

// PublishOrderFulfilled publishes order delivery events.
func (p *EventPublisher) PublishOrderFulfilled(ctx context.Context, event domain.OrderFulfilledEvent) error {
	return p.publish(ctx, event.EventID, TopicOrderFulfilled, "", event.FulfilledAt, event)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
