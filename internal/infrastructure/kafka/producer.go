// Package kafka owns the single long-lived producer connection to the event
// bus. It is constructed at process start, shared by every publish call, and
// closed during shutdown.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Producer wraps a kafka-go writer. The writer dials lazily on the first
// publish and multiplexes all topics over one connection pool, matching the
// process-lifecycle singleton the service expects.
type Producer struct {
	writer *kafka.Writer
	log    zerolog.Logger
}

// NewProducer creates a producer for the given brokers. Messages are routed
// by key so duplicate deliveries of one credential land on one partition.
func NewProducer(brokers []string, log zerolog.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return &Producer{writer: writer, log: log}
}

// Publish sends one message to topic. Delivery is at-least-once; ordering
// across topics is not guaranteed.
func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("write message to %s: %w", topic, err)
	}
	return nil
}

// Close flushes pending messages and tears down the connection. Call once
// during process shutdown.
func (p *Producer) Close() error {
	p.log.Info().Msg("stopping kafka producer")
	return p.writer.Close()
}
