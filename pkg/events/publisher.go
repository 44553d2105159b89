package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opaquedelicia/restaurant-platform/internal/models"
	"github.com/segmentio/kafka-go"
)

// PaymentEvent is published every time a payment leaves pending.
type PaymentEvent struct {
	ID            uuid.UUID            `json:"id"`
	Reference     string               `json:"reference"`
	ReservationID uuid.UUID            `json:"reservation_id"`
	Status        models.PaymentStatus `json:"status"`
	Method        models.PaymentMethod `json:"method"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

func NewPaymentEvent(payment *models.Payment, status models.PaymentStatus) PaymentEvent {
	return PaymentEvent{
		ID:            uuid.New(),
		Reference:     payment.Reference,
		ReservationID: payment.ReservationID,
		Status:        status,
		Method:        payment.Method,
		OccurredAt:    time.Now().UTC(),
	}
}

type Publisher interface {
	PublishPaymentStatus(ctx context.Context, event PaymentEvent) error
	Close() error
}

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer MessageWriter
}

// NewKafkaPublisher writes to topic on brokers. Messages are keyed by payment reference so
// every status of one payment lands on the same partition.
func NewKafkaPublisher(brokers []string, topic string) Publisher {
	return NewPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	})
}

func NewPublisher(writer MessageWriter) Publisher {
	return &kafkaPublisher{writer: writer}
}

func (p *kafkaPublisher) PublishPaymentStatus(ctx context.Context, event PaymentEvent) error {

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal payment event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Reference),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("payment." + string(event.Status))},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish payment event %s: %w", event.Reference, err)
	}

	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

type noopPublisher struct{}

// NewNoopPublisher drops every event. Used when no brokers are configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishPaymentStatus(context.Context, PaymentEvent) error { return nil }

func (noopPublisher) Close() error { return nil }
