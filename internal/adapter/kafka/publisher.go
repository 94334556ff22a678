// Package kafka publishes generation lifecycle events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/osikes/hemisphere/internal/config"
	"github.com/osikes/hemisphere/internal/domain"
)

// Publisher produces generation events to the configured events topic.
// It implements generator.EventSink.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the events topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaEventsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish serializes one lifecycle event and writes it to the topic.
func (p *Publisher) Publish(ctx context.Context, ev domain.GenerationEvent) error {
	msg, err := serializeEvent(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeEvent marshals a GenerationEvent into a Kafka message. Events of
// one epoch share a key so they land on one partition in order.
func serializeEvent(ev domain.GenerationEvent) (kafkago.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize generation event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(fmt.Sprintf("epoch-%d", ev.Epoch)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(ev.Kind)},
			{Key: "emitted_at", Value: []byte(ev.EmittedAt.Format(time.RFC3339))},
		},
	}, nil
}
