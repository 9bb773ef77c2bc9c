package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/fildor/atelier-api/models"
	"go.uber.org/zap"
)

// OrderEventType names what happened to an order
type OrderEventType string

const (
	EventOrderCreated       OrderEventType = "order_created"
	EventOrderStatusChanged OrderEventType = "order_status_changed"
	EventOrderDeleted       OrderEventType = "order_deleted"
)

// OrderEvent is the activity record emitted after an order mutation
type OrderEvent struct {
	Type           OrderEventType     `json:"type"`
	OrderID        string             `json:"order_id"`
	Status         models.OrderStatus `json:"status,omitempty"`
	PreviousStatus models.OrderStatus `json:"previous_status,omitempty"`
	ActorID        *uint              `json:"actor_id,omitempty"`
	ActorRole      string             `json:"actor_role,omitempty"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

// EventPublisher delivers order events to the activity feed
type EventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

// Publish discards the event
func (NoopPublisher) Publish(context.Context, OrderEvent) error { return nil }

// Close does nothing
func (NoopPublisher) Close() error { return nil }

// KafkaPublisher writes events as JSON to a Kafka topic, keyed by order id
// so every event of an order lands on the same partition.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewKafkaPublisher connects a synchronous producer to the given brokers
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Retry.Backoff = 250 * time.Millisecond
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, topic, logger), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, logger: logger}
}

// Publish sends the event and waits for the broker acknowledgement
func (p *KafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode order event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.OrderID),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send order event to Kafka: %w", err)
	}

	p.logger.Debug("Order event published",
		zap.String("type", string(event.Type)),
		zap.String("order_id", event.OrderID),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close flushes and closes the producer
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NewEventPublisher returns a Kafka publisher when brokers are configured, a no-op otherwise
func NewEventPublisher(brokers []string, topic string, logger *zap.Logger) (EventPublisher, error) {
	if len(brokers) == 0 {
		logger.Info("No Kafka brokers configured, order events are disabled")
		return NoopPublisher{}, nil
	}
	return NewKafkaPublisher(brokers, topic, logger)
}
