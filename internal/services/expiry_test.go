package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	service "github.com/opaquedelicia/restaurant-platform/internal/services"
	serviceMocks "github.com/opaquedelicia/restaurant-platform/internal/services/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestExpirySweeper_SweepOnce(t *testing.T) {
	now := time.Now()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Success", func(t *testing.T) {
		payments := serviceMocks.NewMockPaymentService(t)
		sweeper := &service.ExpirySweeper{Payments: payments, Logger: logger}

		payments.On("ExpireOverduePayments", mock.Anything, now).Return(3, nil).Once()

		assert.Equal(t, 3, sweeper.SweepOnce(t.Context(), now))
	})

	t.Run("Failure - Service Error", func(t *testing.T) {
		payments := serviceMocks.NewMockPaymentService(t)
		sweeper := &service.ExpirySweeper{Payments: payments, Logger: logger}

		payments.On("ExpireOverduePayments", mock.Anything, now).Return(0, errors.New("db down")).Once()

		assert.Zero(t, sweeper.SweepOnce(t.Context(), now))
	})
}

func TestExpirySweeper_Run(t *testing.T) {
	// Arrange
	payments := serviceMocks.NewMockPaymentService(t)
	sweeper := &service.ExpirySweeper{
		Payments: payments,
		Interval: 10 * time.Millisecond,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	swept := make(chan struct{}, 1)
	payments.On("ExpireOverduePayments", mock.Anything, mock.AnythingOfType("time.Time")).
		Run(func(mock.Arguments) {
			select {
			case swept <- struct{}{}:
			default:
			}
		}).
		Return(0, nil)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})

	// Act
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	// Assert
	select {
	case <-swept:
	case <-time.After(time.Second):
		t.Fatal("sweeper never ran")
	}

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
