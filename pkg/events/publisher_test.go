package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/opaquedelicia/restaurant-platform/internal/models"
	"github.com/opaquedelicia/restaurant-platform/pkg/events"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}

	w.messages = append(w.messages, msgs...)

	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true

	return nil
}

func TestPublishPaymentStatus(t *testing.T) {
	payment := &models.Payment{
		Reference:     "REF123",
		ReservationID: uuid.New(),
		Method:        models.PaymentMethodMultibanco,
	}

	t.Run("Success", func(t *testing.T) {
		// Arrange
		writer := &fakeWriter{}
		publisher := events.NewPublisher(writer)
		event := events.NewPaymentEvent(payment, models.PaymentStatusPaid)

		// Act
		err := publisher.PublishPaymentStatus(t.Context(), event)

		// Assert
		require.NoError(t, err)
		require.Len(t, writer.messages, 1)

		msg := writer.messages[0]
		assert.Equal(t, "REF123", string(msg.Key))
		require.Len(t, msg.Headers, 1)
		assert.Equal(t, "payment.paid", string(msg.Headers[0].Value))

		var decoded events.PaymentEvent
		require.NoError(t, json.Unmarshal(msg.Value, &decoded))
		assert.Equal(t, payment.ReservationID, decoded.ReservationID)
		assert.Equal(t, models.PaymentStatusPaid, decoded.Status)
		assert.Equal(t, models.PaymentMethodMultibanco, decoded.Method)
	})

	t.Run("Failure - Writer Error", func(t *testing.T) {
		// Arrange
		writerErr := errors.New("leader not available")
		publisher := events.NewPublisher(&fakeWriter{err: writerErr})

		// Act
		err := publisher.PublishPaymentStatus(t.Context(), events.NewPaymentEvent(payment, models.PaymentStatusExpired))

		// Assert
		require.Error(t, err)
		assert.ErrorIs(t, err, writerErr)
		assert.Contains(t, err.Error(), "failed to publish payment event REF123")
	})

	t.Run("Close closes the writer", func(t *testing.T) {
		writer := &fakeWriter{}

		require.NoError(t, events.NewPublisher(writer).Close())

		assert.True(t, writer.closed)
	})
}

func TestNoopPublisher(t *testing.T) {
	publisher := events.NewNoopPublisher()

	assert.NoError(t, publisher.PublishPaymentStatus(t.Context(), events.PaymentEvent{Reference: "REF1"}))
	assert.NoError(t, publisher.Close())
}
