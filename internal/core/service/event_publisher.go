package service

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/clipstream/auth-service/internal/core/domain"
)

// Producer abstracts the event-bus connection (Kafka). One long-lived
// producer is shared by the whole process; all publishes multiplex over it.
type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// CredentialEventPublisher serializes credential change events and hands
// them to the producer keyed by the deterministic idempotency key.
//
// Delivery is best-effort: the identity store is the system of record and
// the event is only a notification, so failures are logged and swallowed
// rather than aborting the transaction that triggered them.
type CredentialEventPublisher struct {
	producer    Producer
	createTopic string
	deleteTopic string
	log         zerolog.Logger
}

func NewCredentialEventPublisher(producer Producer, createTopic, deleteTopic string, log zerolog.Logger) *CredentialEventPublisher {
	return &CredentialEventPublisher{
		producer:    producer,
		createTopic: createTopic,
		deleteTopic: deleteTopic,
		log:         log,
	}
}

// PublishCreated emits a create event for the credential.
func (p *CredentialEventPublisher) PublishCreated(ctx context.Context, cred *domain.Credential) {
	p.send(ctx, p.createTopic, domain.IdempotencyKey(cred.ID), domain.NewCreatedEvent(cred))
}

// PublishDeleted emits a delete event for the credential.
func (p *CredentialEventPublisher) PublishDeleted(ctx context.Context, cred *domain.Credential) {
	p.send(ctx, p.deleteTopic, domain.IdempotencyKey(cred.ID), domain.NewDeletedEvent(cred))
}

func (p *CredentialEventPublisher) send(ctx context.Context, topic, key string, payload any) {
	value, err := json.Marshal(payload)
	if err != nil {
		p.log.Error().Err(err).Str("topic", topic).Msg("cannot serialize event")
		return
	}

	if err := p.producer.Publish(ctx, topic, []byte(key), value); err != nil {
		p.log.Error().Err(err).
			Str("topic", topic).
			Str("idempotency_key", key).
			Msg("cannot send message")
		return
	}

	p.log.Debug().Str("topic", topic).Str("idempotency_key", key).Msg("event published")
}
